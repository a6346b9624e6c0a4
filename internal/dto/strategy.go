package dto

import "time"

// StrategyType is the closed vocabulary of spread structures the selector
// can recommend.
type StrategyType string

const (
	BullPutSpread  StrategyType = "BULL_PUT_SPREAD"
	BullCallSpread StrategyType = "BULL_CALL_SPREAD"
	BearCallSpread StrategyType = "BEAR_CALL_SPREAD"
	BearPutSpread  StrategyType = "BEAR_PUT_SPREAD"
	IronCondor     StrategyType = "IRON_CONDOR"
	IronButterfly  StrategyType = "IRON_BUTTERFLY"
	CalendarSpread StrategyType = "CALENDAR_SPREAD"
	NoTrade        StrategyType = "NO_TRADE"
)

// IsCredit reports whether the strategy collects premium up front.
func (s StrategyType) IsCredit() bool {
	switch s {
	case BullPutSpread, BearCallSpread, IronCondor, IronButterfly:
		return true
	}
	return false
}

// IsDebit reports whether the strategy pays premium up front.
func (s StrategyType) IsDebit() bool {
	switch s {
	case BullCallSpread, BearPutSpread, CalendarSpread:
		return true
	}
	return false
}

// IsBullish reports the directional framing used for breakeven and
// profit-target placement.
func (s StrategyType) IsBullish() bool {
	return s == BullPutSpread || s == BullCallSpread
}

func (s StrategyType) IsBearish() bool {
	return s == BearCallSpread || s == BearPutSpread
}

// StrategyParameters is the selector output for one recommendation cycle.
type StrategyParameters struct {
	Strategy      StrategyType `json:"strategy"`
	SellStrike    float64      `json:"sell_strike,omitempty"`
	BuyStrike     float64      `json:"buy_strike,omitempty"`
	OptionType    OptionType   `json:"option_type,omitempty"`
	TargetCredit  float64      `json:"target_credit"`
	MaxLoss       float64      `json:"max_loss"`
	MaxProfit     float64      `json:"max_profit"`
	ReturnOnRisk  float64      `json:"return_on_risk"`
	DTE           int          `json:"dte"`
	Expiry        time.Time    `json:"expiry"`
	Breakeven     float64      `json:"breakeven"`
	ProbOfProfit  float64      `json:"prob_of_profit"` // 0-1
}

// AccountType buckets an account by balance for risk-band lookup.
type AccountType string

const (
	AccountSmall    AccountType = "small"
	AccountMedium   AccountType = "medium"
	AccountLarge    AccountType = "large"
	AccountStressed AccountType = "stressed"
)

// AccountInfo is what the caller supplies about the account being sized.
type AccountInfo struct {
	Balance         float64 `json:"balance" validate:"required,gt=0"`
	CurrentDrawdown float64 `json:"current_drawdown" validate:"gte=0,lte=1"`
}

// Type buckets the account: stressed when drawdown exceeds 15%, otherwise
// by balance.
func (a AccountInfo) Type() AccountType {
	if a.CurrentDrawdown > 0.15 {
		return AccountStressed
	}
	switch {
	case a.Balance < 25_000:
		return AccountSmall
	case a.Balance < 100_000:
		return AccountMedium
	default:
		return AccountLarge
	}
}

// StrategyRecommendation is the full advisor output handed to the host.
type StrategyRecommendation struct {
	Strategy        StrategyType       `json:"strategy"`
	PositionSize    float64            `json:"position_size"`
	RiskLevel       VolatilityRegime   `json:"risk_level"`
	ExpectedWinRate float64            `json:"expected_win_rate"`
	SignalStrength  float64            `json:"signal_strength"`
	Bias            MarketBias         `json:"bias"`
	MaxRisk         float64            `json:"max_risk"`
	Reasoning       []string           `json:"reasoning"`
	Parameters      StrategyParameters `json:"parameters"`
	Risk            RiskMetrics        `json:"risk"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
