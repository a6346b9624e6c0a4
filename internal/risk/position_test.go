package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/logger"
)

func newTestSizer() *Sizer {
	return NewSizer(config.Default(), logger.NewNop())
}

func calmProfile() dto.VolatilityProfile {
	return dto.VolatilityProfile{
		Regime:               dto.VolMedium,
		VIXMultiplier:        1.0,
		PercentileMultiplier: 1.0,
	}
}

func TestSizePercentStaysInsideBand(t *testing.T) {
	s := newTestSizer()
	cfg := config.Default()

	accounts := []struct {
		name    string
		account dto.AccountInfo
		band    string
	}{
		{"small", dto.AccountInfo{Balance: 10_000}, "small"},
		{"medium", dto.AccountInfo{Balance: 50_000}, "medium"},
		{"large", dto.AccountInfo{Balance: 250_000}, "large"},
		{"stressed", dto.AccountInfo{Balance: 250_000, CurrentDrawdown: 0.20}, "stressed"},
	}

	for _, tt := range accounts {
		for _, strength := range []float64{0, 1, 2.5, 4, 5} {
			band := cfg.Account[tt.band]
			metrics := s.Size(tt.account, dto.SignalAssessment{Strength: strength}, calmProfile(), nil, 100)

			assert.GreaterOrEqual(t, metrics.PositionSizePct, band.MinPct,
				"%s at strength %.1f", tt.name, strength)
			assert.LessOrEqual(t, metrics.PositionSizePct, band.MaxPct,
				"%s at strength %.1f", tt.name, strength)
		}
	}
}

func TestSizeScalesWithStrength(t *testing.T) {
	s := newTestSizer()
	account := dto.AccountInfo{Balance: 50_000}

	weak := s.Size(account, dto.SignalAssessment{Strength: 1}, calmProfile(), nil, 100)
	mid := s.Size(account, dto.SignalAssessment{Strength: 3}, calmProfile(), nil, 100)
	strong := s.Size(account, dto.SignalAssessment{Strength: 4.5}, calmProfile(), nil, 100)

	assert.Less(t, weak.PositionSizePct, mid.PositionSizePct)
	assert.Less(t, mid.PositionSizePct, strong.PositionSizePct)
	assert.InDelta(t, 0.05, weak.PositionSizePct, 1e-9)
	assert.InDelta(t, 0.12, strong.PositionSizePct, 1e-9)
}

func TestSizeHighVolatilityCutsExposure(t *testing.T) {
	s := newTestSizer()
	account := dto.AccountInfo{Balance: 50_000}
	assessment := dto.SignalAssessment{Strength: 4.5}

	calm := s.Size(account, assessment, calmProfile(), nil, 100)
	stormy := s.Size(account, assessment, dto.VolatilityProfile{
		Regime:               dto.VolHigh,
		VIXMultiplier:        1.2,
		PercentileMultiplier: 1.0,
	}, nil, 100)

	assert.Less(t, stormy.PositionSizePct, calm.PositionSizePct)
	assert.InDelta(t, 0.12*0.7, stormy.PositionSizePct, 1e-9)
}

func TestSizeDrawdownPenalties(t *testing.T) {
	s := newTestSizer()
	assessment := dto.SignalAssessment{Strength: 4.5}

	healthy := s.Size(dto.AccountInfo{Balance: 50_000}, assessment, calmProfile(), nil, 100)
	dented := s.Size(dto.AccountInfo{Balance: 50_000, CurrentDrawdown: 0.07}, assessment, calmProfile(), nil, 100)
	bruised := s.Size(dto.AccountInfo{Balance: 50_000, CurrentDrawdown: 0.12}, assessment, calmProfile(), nil, 100)

	assert.Greater(t, healthy.PositionSizePct, dented.PositionSizePct)
	assert.Greater(t, dented.PositionSizePct, bruised.PositionSizePct)
	assert.InDelta(t, 0.12*0.75, dented.PositionSizePct, 1e-9)
	assert.InDelta(t, 0.12*0.6, bruised.PositionSizePct, 1e-9)
}

func TestSizeMaxRiskCappedByDefinedRisk(t *testing.T) {
	s := newTestSizer()
	account := dto.AccountInfo{Balance: 50_000}
	params := &dto.StrategyParameters{
		Strategy:     dto.BullPutSpread,
		MaxLoss:      3.5,
		MaxProfit:    1.5,
		TargetCredit: 1.5,
	}

	metrics := s.Size(account, dto.SignalAssessment{Strength: 3}, calmProfile(), params, 100)

	assert.LessOrEqual(t, metrics.MaxRisk, metrics.MaxPositionSize)
	assert.InDelta(t, metrics.MaxPositionSize*3.5/5.0, metrics.MaxRisk, 1e-9)
}

func TestSizeStopAndTargetFollowDirection(t *testing.T) {
	s := newTestSizer()
	account := dto.AccountInfo{Balance: 50_000}
	entry := 600.0

	t.Run("bullish", func(t *testing.T) {
		params := &dto.StrategyParameters{Strategy: dto.BullPutSpread}
		m := s.Size(account, dto.SignalAssessment{Strength: 3}, calmProfile(), params, entry)
		assert.Less(t, m.StopLossPrice, entry)
		assert.Greater(t, m.ProfitTargetPrice, entry)
	})

	t.Run("bearish", func(t *testing.T) {
		params := &dto.StrategyParameters{Strategy: dto.BearCallSpread}
		m := s.Size(account, dto.SignalAssessment{Strength: 3}, calmProfile(), params, entry)
		assert.Greater(t, m.StopLossPrice, entry)
		assert.Less(t, m.ProfitTargetPrice, entry)
	})
}

func TestSizeVolFactorClamped(t *testing.T) {
	s := newTestSizer()
	account := dto.AccountInfo{Balance: 50_000}

	extreme := s.Size(account, dto.SignalAssessment{Strength: 3}, dto.VolatilityProfile{
		Regime:               dto.VolHigh,
		PercentileHigh:       true,
		VIXMultiplier:        1.4,
		PercentileMultiplier: 1.4,
	}, nil, 100)
	assert.Equal(t, 1.5, extreme.VolAdjustmentFactor)
	assert.Equal(t, 1.5, extreme.CorrelationRiskScore)

	sleepy := s.Size(account, dto.SignalAssessment{Strength: 3}, dto.VolatilityProfile{
		Regime:               dto.VolLow,
		VIXMultiplier:        0.6,
		PercentileMultiplier: 0.6,
	}, nil, 100)
	assert.Equal(t, 0.5, sleepy.VolAdjustmentFactor)
	assert.Zero(t, sleepy.CorrelationRiskScore)
}
