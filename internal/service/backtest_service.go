package service

import (
	"context"

	"options-advisor/config"
	"options-advisor/internal/backtest"
	"options-advisor/internal/dto"
	"options-advisor/internal/repository"
	"options-advisor/pkg/logger"
)

// BacktestService validates the recommendation logic against history.
type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error)
}

type backtestService struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	simulator      *backtest.Simulator
}

func NewBacktestService(cfg *config.Config, log *logger.Logger, marketDataRepo repository.MarketDataRepository, simulator *backtest.Simulator) BacktestService {
	return &backtestService{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		simulator:      simulator,
	}
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	history, err := s.marketDataRepo.GetHistory(ctx, req.LookbackDays)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get historical data for backtest", logger.ErrorField(err))
		return nil, err
	}

	s.log.InfoContext(ctx, "Starting backtest",
		logger.IntField("lookback_days", req.LookbackDays),
		logger.IntField("snapshots", len(history)),
		logger.FloatField("initial_balance", req.InitialBalance),
	)

	return s.simulator.Run(ctx, history, req.InitialBalance)
}
