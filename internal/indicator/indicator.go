package indicator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned when a window is larger than the
// available series. SMA fails hard on it; RSI and ADX degrade to
// neutral/zero values instead.
var ErrInsufficientData = errors.New("insufficient data for indicator window")

// SMA returns the rolling arithmetic mean over the given period. The
// output has length len(series)-period+1.
func SMA(series []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %d", period)
	}
	if len(series) < period {
		return nil, fmt.Errorf("SMA(%d) over %d points: %w", period, len(series), ErrInsufficientData)
	}

	out := make([]float64, 0, len(series)-period+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out, nil
}

// EMA returns the exponential moving average, seeded with the first raw
// value. The smoothing constant is 2/(period+1).
func EMA(series []float64, period int) []float64 {
	if len(series) == 0 || period <= 0 {
		return nil
	}

	k := 2.0 / (float64(period) + 1)
	out := make([]float64, len(series))
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = series[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACD returns EMA(fast) - EMA(slow) pointwise over the full series.
func MACD(series []float64, fast, slow int) []float64 {
	if len(series) == 0 {
		return nil
	}

	emaFast := EMA(series, fast)
	emaSlow := EMA(series, slow)
	out := make([]float64, len(series))
	for i := range series {
		out[i] = emaFast[i] - emaSlow[i]
	}
	return out
}

// RSI returns the relative strength index over the trailing window.
// With fewer than period+1 points it returns a neutral 50; when the
// window holds no losses it returns 100.
func RSI(series []float64, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(series) - period; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// DirectionalIndex bundles the ADX output.
type DirectionalIndex struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes the average directional index with Wilder smoothing:
// the first smoothed value is a simple average of the first period
// elements, each subsequent one is (prev*(period-1) + new)/period.
// Returns zeros when fewer than period+1 bars are supplied.
func ADX(high, low, close []float64, period int) DirectionalIndex {
	n := len(close)
	if period <= 0 || n < period+1 || len(high) != n || len(low) != n {
		return DirectionalIndex{}
	}

	trs := make([]float64, 0, n-1)
	plusDMs := make([]float64, 0, n-1)
	minusDMs := make([]float64, 0, n-1)

	for i := 1; i < n; i++ {
		tr := math.Max(high[i]-low[i], math.Max(
			math.Abs(high[i]-close[i-1]),
			math.Abs(low[i]-close[i-1]),
		))
		trs = append(trs, tr)

		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]

		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		plusDMs = append(plusDMs, plusDM)
		minusDMs = append(minusDMs, minusDM)
	}

	smTR := wilderSmooth(trs, period)
	smPlus := wilderSmooth(plusDMs, period)
	smMinus := wilderSmooth(minusDMs, period)

	dxs := make([]float64, 0, len(smTR))
	var lastPlusDI, lastMinusDI float64
	for i := range smTR {
		var plusDI, minusDI float64
		if smTR[i] > 0 {
			plusDI = smPlus[i] / smTR[i] * 100
			minusDI = smMinus[i] / smTR[i] * 100
		}
		lastPlusDI, lastMinusDI = plusDI, minusDI

		sum := plusDI + minusDI
		if sum > 0 {
			dxs = append(dxs, math.Abs(plusDI-minusDI)/sum*100)
		} else {
			dxs = append(dxs, 0)
		}
	}

	adx := 0.0
	if len(dxs) >= period {
		smDX := wilderSmooth(dxs, period)
		adx = smDX[len(smDX)-1]
	} else if len(dxs) > 0 {
		var sum float64
		for _, v := range dxs {
			sum += v
		}
		adx = sum / float64(len(dxs))
	}

	return DirectionalIndex{ADX: adx, PlusDI: lastPlusDI, MinusDI: lastMinusDI}
}

// wilderSmooth applies Wilder's smoothing: the first output is the simple
// average of the first period inputs, then s[i] = (s[i-1]*(period-1)+v)/period.
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}

	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	prev := sum / float64(period)
	out = append(out, prev)

	for i := period; i < len(values); i++ {
		prev = (prev*float64(period-1) + values[i]) / float64(period)
		out = append(out, prev)
	}
	return out
}
