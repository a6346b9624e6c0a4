package service

import (
	"options-advisor/config"
	"options-advisor/internal/backtest"
	"options-advisor/internal/classifier"
	"options-advisor/internal/repository"
	"options-advisor/internal/risk"
	"options-advisor/internal/strategy"
	"options-advisor/pkg/logger"
)

type Service struct {
	AdvisorService   AdvisorService
	BacktestService  BacktestService
	SchedulerService SchedulerService
}

func NewService(cfg *config.Config, log *logger.Logger, repo *repository.Repository) *Service {
	biasClassifier := classifier.NewBiasClassifier(cfg, log)
	volClassifier := classifier.NewVolatilityClassifier(cfg)
	selector := strategy.NewSelector(cfg, log)
	sizer := risk.NewSizer(cfg, log)

	advisorService := NewAdvisorService(cfg, log, repo.MarketDataRepo, repo.OptionChainRepo, biasClassifier, volClassifier, selector, sizer)

	simulator := backtest.NewSimulator(cfg, log, biasClassifier, volClassifier, selector, sizer)
	backtestService := NewBacktestService(cfg, log, repo.MarketDataRepo, simulator)

	return &Service{
		AdvisorService:   advisorService,
		BacktestService:  backtestService,
		SchedulerService: NewSchedulerService(cfg, log, advisorService),
	}
}
