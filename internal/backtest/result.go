package backtest

import (
	"math"

	"options-advisor/internal/dto"
)

const tradingDaysPerYear = 252.0

// aggregate derives the performance metrics from the trade log and the
// balance trajectory.
func aggregate(history []dto.MarketSnapshot, trades []dto.TradeResult, returns []float64, initialBalance, finalBalance, maxDrawdown float64) *dto.BacktestResult {
	result := &dto.BacktestResult{
		StartDate:      history[0].Timestamp,
		EndDate:        history[len(history)-1].Timestamp,
		InitialBalance: initialBalance,
		FinalBalance:   finalBalance,
		MaxDrawdown:    maxDrawdown,
		Trades:         trades,
	}

	if len(trades) == 0 {
		return result
	}

	var grossProfit, grossLoss float64
	for _, trade := range trades {
		result.TotalTrades++
		if trade.ProfitLoss > 0 {
			result.WinningTrades++
			grossProfit += trade.ProfitLoss
		} else {
			result.LosingTrades++
			grossLoss -= trade.ProfitLoss
		}
	}

	result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)

	if grossLoss > 0 {
		result.ProfitFactor = grossProfit / grossLoss
	}

	mean := meanOf(returns)
	result.AnnualizedReturn = math.Pow(1+mean, tradingDaysPerYear) - 1

	if len(returns) >= 2 {
		if std := stddevOf(returns, mean); std > 0 {
			result.SharpeRatio = mean / std * math.Sqrt(tradingDaysPerYear)
		}
	}

	return result
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
