package dto

import (
	"sort"
	"time"
)

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OptionQuote is one contract inside a chain slice.
type OptionQuote struct {
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Last         float64 `json:"last"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	IV           float64 `json:"iv"`
	Delta        float64 `json:"delta,omitempty"`
	Gamma        float64 `json:"gamma,omitempty"`
	Theta        float64 `json:"theta,omitempty"`
	Vega         float64 `json:"vega,omitempty"`
}

// Mid returns the bid/ask midpoint, falling back to the last trade when
// the book is empty.
func (q OptionQuote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.Last
}

// OptionChainSlice holds the quotes for a single expiration, keyed by
// strike within each option type. Strikes are unique per type. The slice
// is immutable once fetched.
type OptionChainSlice struct {
	Symbol          string                  `json:"symbol"`
	Expiration      time.Time               `json:"expiration"`
	DTE             int                     `json:"dte"`
	UnderlyingPrice float64                 `json:"underlying_price"`
	IVPercentile    float64                 `json:"iv_percentile"`
	PutCallRatio    float64                 `json:"put_call_ratio"`
	Calls           map[float64]OptionQuote `json:"calls"`
	Puts            map[float64]OptionQuote `json:"puts"`
}

// Strikes returns the sorted strikes available for the given type.
func (c *OptionChainSlice) Strikes(optType OptionType) []float64 {
	var src map[float64]OptionQuote
	if optType == OptionCall {
		src = c.Calls
	} else {
		src = c.Puts
	}

	strikes := make([]float64, 0, len(src))
	for k := range src {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)
	return strikes
}

// Quote returns the quote for the given type and strike when present.
func (c *OptionChainSlice) Quote(optType OptionType, strike float64) (OptionQuote, bool) {
	if optType == OptionCall {
		q, ok := c.Calls[strike]
		return q, ok
	}
	q, ok := c.Puts[strike]
	return q, ok
}
