package dto

// Provider response shapes, decoded at the collaborator boundary. The
// core never touches these raw formats.

type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type ChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

type ChartQuote struct {
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`
}

type OptionChainResponse struct {
	OptionChain struct {
		Result []OptionChainResult `json:"result"`
		Error  interface{}         `json:"error"`
	} `json:"optionChain"`
}

type OptionChainResult struct {
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	ExpirationDates  []int64 `json:"expirationDates"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"quote"`
	Options []OptionExpiration `json:"options"`
}

type OptionExpiration struct {
	ExpirationDate int64               `json:"expirationDate"`
	Calls          []OptionQuoteRecord `json:"calls"`
	Puts           []OptionQuoteRecord `json:"puts"`
}

type OptionQuoteRecord struct {
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"lastPrice"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}
