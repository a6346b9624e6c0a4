package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"options-advisor/config"
	"options-advisor/internal/classifier"
	"options-advisor/internal/dto"
	"options-advisor/internal/repository"
	"options-advisor/internal/risk"
	"options-advisor/internal/strategy"
	"options-advisor/pkg/logger"
	"options-advisor/pkg/utils"
)

// AdvisorService evaluates current market conditions and recommends a
// sized options-spread strategy.
type AdvisorService interface {
	GetRecommendation(ctx context.Context, account dto.AccountInfo) (*dto.StrategyRecommendation, error)
}

type advisorService struct {
	cfg             *config.Config
	log             *logger.Logger
	marketDataRepo  repository.MarketDataRepository
	optionChainRepo repository.OptionChainRepository
	bias            *classifier.BiasClassifier
	vol             *classifier.VolatilityClassifier
	selector        *strategy.Selector
	sizer           *risk.Sizer
}

func NewAdvisorService(
	cfg *config.Config,
	log *logger.Logger,
	marketDataRepo repository.MarketDataRepository,
	optionChainRepo repository.OptionChainRepository,
	bias *classifier.BiasClassifier,
	vol *classifier.VolatilityClassifier,
	selector *strategy.Selector,
	sizer *risk.Sizer,
) AdvisorService {
	return &advisorService{
		cfg:             cfg,
		log:             log,
		marketDataRepo:  marketDataRepo,
		optionChainRepo: optionChainRepo,
		bias:            bias,
		vol:             vol,
		selector:        selector,
		sizer:           sizer,
	}
}

// GetRecommendation fetches the snapshot and the option chain
// concurrently, then runs classification, selection, pricing and sizing.
// The most recent completed fetch wins; failures propagate untouched.
func (s *advisorService) GetRecommendation(ctx context.Context, account dto.AccountInfo) (*dto.StrategyRecommendation, error) {
	var (
		snap  *dto.MarketSnapshot
		chain *dto.OptionChainSlice
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.marketDataRepo.GetSnapshot(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		chain, err = s.optionChainRepo.GetChain(gCtx, s.cfg.Strategy.TargetDTE, s.cfg.Strategy.DTETolerance)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch market data for recommendation", logger.ErrorField(err))
		return nil, err
	}

	assessment := s.bias.Assess(snap)
	volProfile := s.vol.Classify(snap.VIX, snap.VIXPercentile)

	strategyType := s.selector.Select(assessment, volProfile, snap)

	var params *dto.StrategyParameters
	if strategyType == dto.NoTrade || assessment.Strength < s.cfg.Signal.MinStrength {
		params = &dto.StrategyParameters{Strategy: dto.NoTrade, DTE: chain.DTE, Expiry: chain.Expiration}
	} else {
		var err error
		params, err = s.selector.BuildParameters(strategyType, chain)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to build strategy parameters", logger.ErrorField(err))
			return nil, err
		}
	}

	metrics := s.sizer.Size(account, assessment, volProfile, params, snap.Price)

	rec := &dto.StrategyRecommendation{
		Strategy:        params.Strategy,
		PositionSize:    metrics.MaxPositionSize,
		RiskLevel:       volProfile.Regime,
		ExpectedWinRate: params.ProbOfProfit,
		SignalStrength:  assessment.Strength,
		Bias:            assessment.Bias,
		MaxRisk:         metrics.MaxRisk,
		Reasoning:       s.reasoning(snap, assessment, volProfile, params, metrics),
		Parameters:      *params,
		Risk:            metrics,
		GeneratedAt:     time.Now().UTC(),
	}

	s.log.InfoContext(ctx, "Generated recommendation",
		logger.StringField("strategy", string(rec.Strategy)),
		logger.StringField("bias", string(rec.Bias)),
		logger.FloatField("signal_strength", rec.SignalStrength),
		logger.FloatField("position_size", rec.PositionSize),
	)

	return rec, nil
}

func (s *advisorService) reasoning(snap *dto.MarketSnapshot, assessment dto.SignalAssessment, vol dto.VolatilityProfile, params *dto.StrategyParameters, metrics dto.RiskMetrics) []string {
	lines := []string{
		fmt.Sprintf("Market bias is %s with signal strength %.1f/5.0", assessment.Bias, assessment.Strength),
		fmt.Sprintf("Volatility regime is %s (VIX %.1f, percentile %.0f)", vol.Regime, snap.VIX, snap.VIXPercentile),
	}
	lines = append(lines, assessment.Notes...)

	if params.Strategy == dto.NoTrade {
		lines = append(lines, "Conditions do not justify a position today")
		return lines
	}

	if params.Strategy.IsCredit() {
		lines = append(lines, fmt.Sprintf("%s sells the %.0f/%.0f %s spread for a %.2f credit (%.0f%% probability of profit)",
			params.Strategy, params.SellStrike, params.BuyStrike, params.OptionType, params.TargetCredit, params.ProbOfProfit*100))
	} else {
		lines = append(lines, fmt.Sprintf("%s buys the %.0f/%.0f %s spread risking %.2f",
			params.Strategy, params.BuyStrike, params.SellStrike, params.OptionType, params.MaxLoss))
	}

	lines = append(lines, fmt.Sprintf("Position sized at %s of the account (%s max risk)",
		utils.FormatPercentage(metrics.PositionSizePct*100), utils.FormatCurrency(metrics.MaxRisk)))

	return lines
}
