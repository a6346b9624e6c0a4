package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-advisor/config"
	"options-advisor/internal/classifier"
	"options-advisor/internal/dto"
	"options-advisor/internal/risk"
	"options-advisor/internal/strategy"
	"options-advisor/pkg/logger"
)

func newTestSimulator(cfg *config.Config) *Simulator {
	log := logger.NewNop()
	return NewSimulator(
		cfg,
		log,
		classifier.NewBiasClassifier(cfg, log),
		classifier.NewVolatilityClassifier(cfg),
		strategy.NewSelector(cfg, log),
		risk.NewSizer(cfg, log),
	)
}

// strongBullishDay produces a snapshot the classifier scores well above
// the entry threshold with a bullish vote.
func strongBullishDay(day int, price float64) dto.MarketSnapshot {
	return dto.MarketSnapshot{
		Symbol:        "SPY",
		Price:         price,
		SMA50:         price * 0.97,
		SMA200:        price * 0.92,
		MACD:          12,
		RSI:           55,
		ADX:           30,
		PlusDI:        30,
		MinusDI:       10,
		VIX:           18,
		VIXPercentile: 50,
		Timestamp:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
	}
}

// quietDay scores below the entry threshold.
func quietDay(day int, price float64) dto.MarketSnapshot {
	return dto.MarketSnapshot{
		Symbol:        "SPY",
		Price:         price,
		SMA50:         price,
		SMA200:        price,
		MACD:          0,
		RSI:           50,
		ADX:           10,
		PlusDI:        20,
		MinusDI:       20,
		VIX:           18,
		VIXPercentile: 50,
		Timestamp:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
	}
}

func TestRunRisingMarketCollectsWinners(t *testing.T) {
	sim := newTestSimulator(config.Default())

	history := make([]dto.MarketSnapshot, 60)
	price := 600.0
	for i := range history {
		history[i] = strongBullishDay(i, price)
		price *= 1.005
	}

	result, err := sim.Run(context.Background(), history, 100_000)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.TotalTrades, 5, "a persistent trend should open repeatedly")
	assert.Equal(t, result.TotalTrades, result.WinningTrades)
	assert.Equal(t, 1.0, result.WinRate)
	assert.Greater(t, result.FinalBalance, result.InitialBalance)
	assert.GreaterOrEqual(t, result.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, result.MaxDrawdown, 1.0)

	for _, trade := range result.Trades {
		assert.Equal(t, "profit target", trade.ExitReason)
		assert.Greater(t, trade.ProfitLoss, 0.0)
		assert.True(t, trade.ExitDate.After(trade.EntryDate))
	}
}

func TestRunSingleTradeStatistics(t *testing.T) {
	sim := newTestSimulator(config.Default())

	// One tradeable day, then a dead-flat tape: the position never moves
	// and gets cut at the halfway time exit.
	history := make([]dto.MarketSnapshot, 40)
	history[0] = strongBullishDay(0, 600)
	for i := 1; i < len(history); i++ {
		history[i] = quietDay(i, 600)
	}

	result, err := sim.Run(context.Background(), history, 100_000)
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalTrades)
	assert.Equal(t, 1, result.LosingTrades)
	assert.Equal(t, "time exit", result.Trades[0].ExitReason)
	assert.Less(t, result.Trades[0].ProfitLoss, 0.0)
	assert.Less(t, result.FinalBalance, result.InitialBalance)

	// One return is not a distribution.
	assert.Zero(t, result.SharpeRatio)
	assert.Zero(t, result.ProfitFactor)
	assert.Zero(t, result.WinRate)
	assert.Greater(t, result.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, result.MaxDrawdown, 1.0)
}

func TestRunStopLossOnAdverseMove(t *testing.T) {
	sim := newTestSimulator(config.Default())

	// Strong entry, then a sharp drop through the stop threshold.
	history := make([]dto.MarketSnapshot, 10)
	history[0] = strongBullishDay(0, 600)
	history[1] = quietDay(1, 597)
	for i := 2; i < len(history); i++ {
		history[i] = quietDay(i, 580)
	}

	result, err := sim.Run(context.Background(), history, 100_000)
	require.NoError(t, err)

	require.NotEmpty(t, result.Trades)
	assert.Equal(t, "stop loss", result.Trades[0].ExitReason)
	assert.Less(t, result.Trades[0].ProfitLoss, 0.0)
}

func TestRunRejectsBadInputs(t *testing.T) {
	sim := newTestSimulator(config.Default())

	t.Run("non-positive balance", func(t *testing.T) {
		_, err := sim.Run(context.Background(), []dto.MarketSnapshot{quietDay(0, 600)}, 0)
		var valErr *dto.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, "initial_balance", valErr.Field)
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := sim.Run(context.Background(), nil, 100_000)
		var dataErr *dto.DataError
		require.True(t, errors.As(err, &dataErr))
	})
}

func TestRunHonorsCancellation(t *testing.T) {
	sim := newTestSimulator(config.Default())

	history := make([]dto.MarketSnapshot, 30)
	for i := range history {
		history[i] = strongBullishDay(i, 600)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, history, 100_000)
	require.NoError(t, err)
	assert.Zero(t, result.TotalTrades)
	assert.Equal(t, 100_000.0, result.FinalBalance)
}

func TestRunMonthlySamplingThinsEntries(t *testing.T) {
	cfg := config.Default()
	daily := newTestSimulator(cfg)

	monthlyCfg := config.Default()
	monthlyCfg.Backtest.MonthlySampling = true
	monthly := newTestSimulator(monthlyCfg)

	history := make([]dto.MarketSnapshot, 120)
	price := 600.0
	for i := range history {
		history[i] = strongBullishDay(i, price)
		price *= 1.005
	}

	dailyResult, err := daily.Run(context.Background(), history, 100_000)
	require.NoError(t, err)
	monthlyResult, err := monthly.Run(context.Background(), history, 100_000)
	require.NoError(t, err)

	assert.Less(t, monthlyResult.TotalTrades, dailyResult.TotalTrades)
	assert.Greater(t, monthlyResult.TotalTrades, 0)
}

func TestAggregateSharpeNeedsSpread(t *testing.T) {
	history := []dto.MarketSnapshot{quietDay(0, 600), quietDay(1, 600)}
	trades := []dto.TradeResult{
		{ProfitLoss: 500},
		{ProfitLoss: -200},
	}
	returns := []float64{0.005, -0.002}

	result := aggregate(history, trades, returns, 100_000, 100_300, 0.002)

	assert.Equal(t, 2, result.TotalTrades)
	assert.Equal(t, 0.5, result.WinRate)
	assert.InDelta(t, 2.5, result.ProfitFactor, 1e-9)
	assert.NotZero(t, result.SharpeRatio)
	assert.InDelta(t, math.Pow(1.0015, 252)-1, result.AnnualizedReturn, 1e-9)
}
