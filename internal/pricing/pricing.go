package pricing

import (
	"math"

	"options-advisor/internal/dto"
)

const daysPerYear = 365.0

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// PutPrice values a European put under a lognormal diffusion with zero
// rate and dividend yield. This is intentionally a simplified
// approximation, not a calibrated derivatives engine.
func PutPrice(spot, strike, vol float64, dte int) float64 {
	if spot <= 0 || strike <= 0 || vol <= 0 || dte <= 0 {
		return math.Max(strike-spot, 0)
	}

	t := float64(dte) / daysPerYear
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + 0.5*vol*vol*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	return strike*normCDF(-d2) - spot*normCDF(-d1)
}

// CallPrice values the mirrored call via put-call parity at zero rate.
func CallPrice(spot, strike, vol float64, dte int) float64 {
	return PutPrice(spot, strike, vol, dte) + spot - strike
}

// SpreadQuote carries the two legs of a vertical needed for PoP.
type SpreadQuote struct {
	SellStrike float64
	BuyStrike  float64
	SellIV     float64
	BuyIV      float64
	NetCredit  float64
}

// ProbabilityOfProfit computes the chance the spread expires profitable:
// the standardized distance from spot to breakeven, using the average
// implied volatility of the two legs, mapped through the normal CDF.
// Returns a percentage clamped to [0,100].
func ProbabilityOfProfit(spot float64, q SpreadQuote, optType dto.OptionType, dte int) float64 {
	if spot <= 0 || dte <= 0 {
		return 0
	}

	avgIV := (q.SellIV + q.BuyIV) / 2
	if avgIV <= 0 {
		return 0
	}

	t := float64(dte) / daysPerYear
	denom := avgIV * math.Sqrt(t)

	var z float64
	if optType == dto.OptionPut {
		// Profitable while price stays above breakeven.
		breakeven := q.SellStrike - q.NetCredit
		if breakeven <= 0 {
			return 100
		}
		z = math.Log(spot/breakeven) / denom
	} else {
		// Profitable while price stays below breakeven.
		breakeven := q.SellStrike + q.NetCredit
		z = math.Log(breakeven/spot) / denom
	}

	pop := normCDF(z) * 100
	return clamp(pop, 0, 100)
}

// Breakeven returns the expiration breakeven price for a credit vertical.
func Breakeven(sellStrike, netCredit float64, optType dto.OptionType) float64 {
	if optType == dto.OptionPut {
		return sellStrike - netCredit
	}
	return sellStrike + netCredit
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
