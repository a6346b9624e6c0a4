package dto

import "time"

// MarketSnapshot is one observation of the underlying and its derived
// indicators. It is produced by the market-data repository and consumed
// read-only by every downstream component.
type MarketSnapshot struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	SMA50          float64   `json:"sma_50"`
	SMA200         float64   `json:"sma_200"`
	MACD           float64   `json:"macd"`
	MACDSignal     float64   `json:"macd_signal"`
	RSI            float64   `json:"rsi"`
	ADX            float64   `json:"adx"`
	PlusDI         float64   `json:"plus_di"`
	MinusDI        float64   `json:"minus_di"`
	VIX            float64   `json:"vix"`
	VIXPercentile  float64   `json:"vix_percentile"`
	Volume         float64   `json:"volume"`
	Timestamp      time.Time `json:"timestamp"`
}

// OHLCV is one raw daily bar as returned by the data source.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type MarketBias string

const (
	BiasBullish MarketBias = "BULLISH"
	BiasBearish MarketBias = "BEARISH"
	BiasNeutral MarketBias = "NEUTRAL"
)

type VolatilityRegime string

const (
	VolLow    VolatilityRegime = "LOW"
	VolMedium VolatilityRegime = "MEDIUM"
	VolHigh   VolatilityRegime = "HIGH"
)

// VolatilityProfile is the volatility classifier output: the VIX regime,
// the percentile flag and the bounded adjustment multipliers.
type VolatilityProfile struct {
	Regime               VolatilityRegime `json:"regime"`
	PercentileHigh       bool             `json:"percentile_high"`
	PercentileLow        bool             `json:"percentile_low"`
	VIXMultiplier        float64          `json:"vix_multiplier"`
	PercentileMultiplier float64          `json:"percentile_multiplier"`
}

// SignalAssessment is the bias classifier output for one snapshot.
type SignalAssessment struct {
	Bias     MarketBias `json:"bias"`
	Strength float64    `json:"strength"` // clamped to [0,5]
	Notes    []string   `json:"notes"`
}
