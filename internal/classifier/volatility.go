package classifier

import (
	"options-advisor/config"
	"options-advisor/internal/dto"
)

// VolatilityClassifier buckets the volatility index and its percentile
// rank into regimes and produces bounded adjustment multipliers.
type VolatilityClassifier struct {
	cfg *config.Config
}

func NewVolatilityClassifier(cfg *config.Config) *VolatilityClassifier {
	return &VolatilityClassifier{cfg: cfg}
}

// Classify maps VIX level to LOW/MEDIUM/HIGH and flags the percentile
// extremes independently.
func (c *VolatilityClassifier) Classify(vix, percentile float64) dto.VolatilityProfile {
	v := c.cfg.Volatility

	regime := dto.VolMedium
	switch {
	case vix < v.LowVIX:
		regime = dto.VolLow
	case vix > v.HighVIX:
		regime = dto.VolHigh
	}

	vixMult := 1.0
	switch {
	case vix < v.LowVIX:
		vixMult = 0.8
	case vix > v.ExtremeVIX:
		vixMult = 1.2
	}

	pctMult := 1.0
	switch {
	case percentile < v.LowPercentile:
		pctMult = 0.8
	case percentile > v.HighPercentile:
		pctMult = 1.2
	}

	return dto.VolatilityProfile{
		Regime:               regime,
		PercentileHigh:       percentile >= v.HighPercentile,
		PercentileLow:        percentile <= v.LowPercentile,
		VIXMultiplier:        vixMult,
		PercentileMultiplier: pctMult,
	}
}
