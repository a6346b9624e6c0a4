package dto

// RiskMetrics is recomputed fresh for every recommendation and never
// mutated in place.
type RiskMetrics struct {
	MaxPositionSize      float64 `json:"max_position_size"` // currency
	PositionSizePct      float64 `json:"position_size_pct"` // fraction of balance
	MaxRisk              float64 `json:"max_risk"`          // currency
	StopLossPrice        float64 `json:"stop_loss_price"`
	ProfitTargetPrice    float64 `json:"profit_target_price"`
	RiskRewardRatio      float64 `json:"risk_reward_ratio"`       // > 1 enforced
	MaxDrawdownCeiling   float64 `json:"max_drawdown_ceiling"`    // <= 0.25
	VolAdjustmentFactor  float64 `json:"vol_adjustment_factor"`   // bounded [0.5, 1.5]
	CorrelationRiskScore float64 `json:"correlation_risk_score"`  // >= 0
}
