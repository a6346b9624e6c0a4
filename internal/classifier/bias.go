package classifier

import (
	"fmt"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/logger"
)

// BiasClassifier turns one indicator snapshot into a discrete market
// bias and a continuous signal-strength score.
type BiasClassifier struct {
	cfg *config.Config
	log *logger.Logger
}

func NewBiasClassifier(cfg *config.Config, log *logger.Logger) *BiasClassifier {
	return &BiasClassifier{cfg: cfg, log: log}
}

// Assess scores one snapshot. Strength is a sum of independent bounded
// contributions clamped to [0,5]; bias is a weighted majority vote over
// discrete signals, with trend votes doubled when ADX reads strong.
func (c *BiasClassifier) Assess(snap *dto.MarketSnapshot) dto.SignalAssessment {
	strength := 0.0
	var notes []string

	// Moving-average alignment.
	switch {
	case snap.Price > snap.SMA50 && snap.SMA50 > snap.SMA200:
		strength += 1.5
		notes = append(notes, "price above 50- and 200-day averages (bullish alignment)")
	case snap.Price < snap.SMA50 && snap.SMA50 < snap.SMA200:
		strength += 1.5
		notes = append(notes, "price below 50- and 200-day averages (bearish alignment)")
	case snap.Price > snap.SMA200:
		strength += 0.75
		notes = append(notes, "price above 200-day average")
	case snap.Price < snap.SMA200:
		strength += 0.75
		notes = append(notes, "price below 200-day average")
	}

	// MACD sign and magnitude.
	switch {
	case snap.MACD > c.cfg.Signal.StrongMACD || snap.MACD < -c.cfg.Signal.StrongMACD:
		strength += 1.0
		notes = append(notes, fmt.Sprintf("strong MACD reading %.2f", snap.MACD))
	case snap.MACD != 0:
		strength += 0.5
	}

	// RSI extremes.
	switch {
	case snap.RSI <= c.cfg.Signal.RSIOversold:
		strength += 0.75
		notes = append(notes, fmt.Sprintf("RSI oversold at %.1f", snap.RSI))
	case snap.RSI >= c.cfg.Signal.RSIOverbought:
		strength += 0.75
		notes = append(notes, fmt.Sprintf("RSI overbought at %.1f", snap.RSI))
	case snap.RSI >= 40 && snap.RSI <= 60:
		strength += 0.25
	}

	// Volatility level is non-monotonic evidence: complacency and fear
	// are both tradeable regimes.
	if snap.VIX < c.cfg.Volatility.LowVIX || snap.VIX > c.cfg.Volatility.HighVIX {
		strength += 0.75
		notes = append(notes, fmt.Sprintf("volatility index at %.1f marks a distinct regime", snap.VIX))
	}

	// Trend strength via ADX.
	switch {
	case snap.ADX >= 50:
		strength += 1.0
		notes = append(notes, fmt.Sprintf("very strong trend (ADX %.1f)", snap.ADX))
	case snap.ADX >= 25:
		strength += 0.75
		notes = append(notes, fmt.Sprintf("strong trend (ADX %.1f)", snap.ADX))
	case snap.ADX >= 20:
		strength += 0.5
	}

	if strength > 5 {
		strength = 5
	}
	if strength < 0 {
		strength = 0
	}

	bias := c.vote(snap)

	c.log.Debug("Assessed market snapshot",
		logger.StringField("bias", string(bias)),
		logger.FloatField("strength", strength),
	)

	return dto.SignalAssessment{Bias: bias, Strength: strength, Notes: notes}
}

// vote tallies discrete bullish/bearish signals. Trend-following votes
// (MA stack, DI comparison) count double when ADX >= 25. Ties resolve
// to NEUTRAL.
func (c *BiasClassifier) vote(snap *dto.MarketSnapshot) dto.MarketBias {
	trendWeight := 1
	if snap.ADX >= 25 {
		trendWeight = 2
	}

	bull, bear := 0, 0

	if snap.Price > snap.SMA50 && snap.Price > snap.SMA200 {
		bull += trendWeight
	} else if snap.Price < snap.SMA50 && snap.Price < snap.SMA200 {
		bear += trendWeight
	}

	// MACD above its signal line is bullish momentum, below is bearish.
	if snap.MACD > snap.MACDSignal {
		bull++
	} else if snap.MACD < snap.MACDSignal {
		bear++
	}

	// RSI extremes vote mean-reversion.
	if snap.RSI <= c.cfg.Signal.RSIOversold {
		bull++
	} else if snap.RSI >= c.cfg.Signal.RSIOverbought {
		bear++
	}

	if snap.PlusDI > snap.MinusDI {
		bull += trendWeight
	} else if snap.MinusDI > snap.PlusDI {
		bear += trendWeight
	}

	switch {
	case bull > bear:
		return dto.BiasBullish
	case bear > bull:
		return dto.BiasBearish
	default:
		return dto.BiasNeutral
	}
}
