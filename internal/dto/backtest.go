package dto

import "time"

// BacktestRequest defines the parameters for one simulation run.
type BacktestRequest struct {
	LookbackDays   int     `json:"lookback_days" validate:"required,gt=0"`
	InitialBalance float64 `json:"initial_balance" validate:"required,gt=0"`
}

// TradeResult records one simulated trade. Immutable once appended to the
// run's trade log.
type TradeResult struct {
	EntryDate  time.Time    `json:"entry_date"`
	ExitDate   time.Time    `json:"exit_date"`
	Strategy   StrategyType `json:"strategy"`
	EntryPrice float64      `json:"entry_price"`
	ExitPrice  float64      `json:"exit_price"`
	ProfitLoss float64      `json:"profit_loss"`
	ExitReason string       `json:"exit_reason"`
	Risk       RiskMetrics  `json:"risk"`
}

// BacktestResult aggregates a trade log and the balance trajectory. It is
// a pure function of both, never stored independently.
type BacktestResult struct {
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	InitialBalance   float64       `json:"initial_balance"`
	FinalBalance     float64       `json:"final_balance"`
	TotalTrades      int           `json:"total_trades"`
	WinningTrades    int           `json:"winning_trades"`
	LosingTrades     int           `json:"losing_trades"`
	WinRate          float64       `json:"win_rate"`
	AnnualizedReturn float64       `json:"annualized_return"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	SharpeRatio      float64       `json:"sharpe_ratio"`
	ProfitFactor     float64       `json:"profit_factor"`
	Trades           []TradeResult `json:"trades"`
}
