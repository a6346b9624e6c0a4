package strategy

import (
	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/logger"
)

// Selector maps {bias, volatility regime, oscillator extremes} to a
// spread strategy and builds its strike/credit/loss parameters against
// an option chain.
type Selector struct {
	cfg *config.Config
	log *logger.Logger
}

func NewSelector(cfg *config.Config, log *logger.Logger) *Selector {
	return &Selector{cfg: cfg, log: log}
}

// Select resolves the decision table. High volatility favors selling
// premium, low favors buying it. An extreme RSI overrides the table:
// mean reversion takes priority over trend following.
func (s *Selector) Select(assessment dto.SignalAssessment, vol dto.VolatilityProfile, snap *dto.MarketSnapshot) dto.StrategyType {
	// RSI-extreme override: an overbought tape gets a bearish credit
	// structure and an oversold one a bullish credit structure,
	// regardless of what the moving averages say.
	if snap.RSI >= s.cfg.Signal.RSIOverbought {
		return dto.BearCallSpread
	}
	if snap.RSI <= s.cfg.Signal.RSIOversold {
		return dto.BullPutSpread
	}

	switch assessment.Bias {
	case dto.BiasBullish:
		switch vol.Regime {
		case dto.VolHigh:
			return dto.BullPutSpread
		case dto.VolLow:
			return dto.BullCallSpread
		default:
			if snap.RSI < 45 {
				return dto.BullCallSpread
			}
			return dto.BullPutSpread
		}

	case dto.BiasBearish:
		switch vol.Regime {
		case dto.VolHigh:
			return dto.BearCallSpread
		case dto.VolLow:
			return dto.BearPutSpread
		default:
			if snap.RSI > 55 {
				return dto.BearPutSpread
			}
			return dto.BearCallSpread
		}

	default: // NEUTRAL
		switch vol.Regime {
		case dto.VolHigh:
			return dto.IronCondor
		case dto.VolLow:
			if snap.ADX < 20 {
				return dto.IronButterfly
			}
			return dto.NoTrade
		default:
			if snap.VIXPercentile >= 50 {
				return dto.IronCondor
			}
			return dto.CalendarSpread
		}
	}
}
