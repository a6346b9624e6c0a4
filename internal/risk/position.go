package risk

import (
	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/logger"
)

// Sizer converts signal strength, volatility regime and account drawdown
// into a bounded position size and a maximum-risk figure.
type Sizer struct {
	cfg *config.Config
	log *logger.Logger
}

func NewSizer(cfg *config.Config, log *logger.Logger) *Sizer {
	return &Sizer{cfg: cfg, log: log}
}

// Size computes RiskMetrics for one recommendation. The position-size
// fraction always lands inside the account type's configured band.
func (s *Sizer) Size(account dto.AccountInfo, assessment dto.SignalAssessment, vol dto.VolatilityProfile, params *dto.StrategyParameters, entryPrice float64) dto.RiskMetrics {
	band := s.band(account.Type())

	// Signal strength picks the spot inside the band.
	var pct float64
	switch {
	case assessment.Strength >= 4:
		pct = band.MaxPct
	case assessment.Strength >= 2.5:
		pct = (band.MinPct + band.MaxPct) / 2
	default:
		pct = band.MinPct
	}

	// Volatility and drawdown apply independent penalties.
	if vol.Regime == dto.VolHigh {
		pct *= 0.7
	}

	switch {
	case account.CurrentDrawdown > 0.15:
		pct *= 0.5
	case account.CurrentDrawdown > 0.10:
		pct *= 0.6
	case account.CurrentDrawdown > 0.05:
		pct *= 0.75
	}

	if pct < band.MinPct {
		pct = band.MinPct
	}
	if pct > band.MaxPct {
		pct = band.MaxPct
	}

	positionSize := pct * account.Balance
	maxRisk := positionSize
	if params != nil && params.MaxLoss > 0 {
		// Defined-risk structures cap the loss below the full position.
		if capped := positionSize * params.MaxLoss / (params.MaxLoss + params.MaxProfit); capped < maxRisk {
			maxRisk = capped
		}
	}

	stopLoss := entryPrice * (1 - s.cfg.Risk.DefaultStopLossPct)
	profitTarget := entryPrice * (1 + s.cfg.Risk.ProfitTargetPct)
	if params != nil && params.Strategy.IsBearish() {
		stopLoss = entryPrice * (1 + s.cfg.Risk.DefaultStopLossPct)
		profitTarget = entryPrice * (1 - s.cfg.Risk.ProfitTargetPct)
	}

	volFactor := vol.VIXMultiplier * vol.PercentileMultiplier
	if volFactor < 0.5 {
		volFactor = 0.5
	}
	if volFactor > 1.5 {
		volFactor = 1.5
	}

	riskReward := s.cfg.Risk.ProfitTargetPct / s.cfg.Risk.DefaultStopLossPct
	if riskReward <= 1 {
		riskReward = 1.5
	}

	metrics := dto.RiskMetrics{
		MaxPositionSize:      positionSize,
		PositionSizePct:      pct,
		MaxRisk:              maxRisk,
		StopLossPrice:        stopLoss,
		ProfitTargetPrice:    profitTarget,
		RiskRewardRatio:      riskReward,
		MaxDrawdownCeiling:   s.cfg.Risk.MaxDrawdownCeiling,
		VolAdjustmentFactor:  volFactor,
		CorrelationRiskScore: correlationScore(vol),
	}

	s.log.Debug("Sized position",
		logger.StringField("account_type", string(account.Type())),
		logger.FloatField("position_pct", pct),
		logger.FloatField("max_risk", maxRisk),
	)

	return metrics
}

func (s *Sizer) band(accountType dto.AccountType) config.Bands {
	if band, ok := s.cfg.Account[string(accountType)]; ok {
		return band
	}
	// Unknown account types fall back to the most conservative band.
	return config.Bands{MinPct: 0.02, MaxPct: 0.05}
}

// correlationScore is a coarse proxy: elevated volatility regimes imply
// higher cross-asset correlation.
func correlationScore(vol dto.VolatilityProfile) float64 {
	score := 0.0
	if vol.Regime == dto.VolHigh {
		score += 1.0
	}
	if vol.PercentileHigh {
		score += 0.5
	}
	return score
}
