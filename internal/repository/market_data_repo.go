package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/internal/indicator"
	"options-advisor/pkg/cache"
	"options-advisor/pkg/httpclient"
	"options-advisor/pkg/logger"
)

const vixSymbol = "^VIX"

// MarketDataRepository fetches raw price series for the underlying and
// the volatility index, and turns them into indicator snapshots. Fetch
// failures surface as DataError; the repository never substitutes
// defaults for missing data.
type MarketDataRepository interface {
	GetSnapshot(ctx context.Context) (*dto.MarketSnapshot, error)
	GetHistory(ctx context.Context, lookbackDays int) ([]dto.MarketSnapshot, error)
}

type marketDataRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     httpclient.HTTPClient
	cache          cache.Cache
	requestLimiter *rate.Limiter
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient, c cache.Cache) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.MarketData.MaxRequestPerMin)

	return &marketDataRepository{
		cfg:            cfg,
		log:            log,
		httpClient:     client,
		cache:          c,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *marketDataRepository) GetSnapshot(ctx context.Context) (*dto.MarketSnapshot, error) {
	cacheKey := fmt.Sprintf("snapshot:%s", r.cfg.MarketData.Symbol)
	if snap, ok := cache.GetTyped[*dto.MarketSnapshot](r.cache, cacheKey); ok {
		return snap, nil
	}

	// One year of history so the 200-day average and the percentile rank
	// have a full window.
	history, err := r.GetHistory(ctx, 365)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, dto.NewDataError(r.cfg.MarketData.Symbol, fmt.Errorf("empty history"))
	}

	snap := &history[len(history)-1]
	r.cache.Set(cacheKey, snap, r.cfg.Cache.SnapshotTTL)
	return snap, nil
}

func (r *marketDataRepository) GetHistory(ctx context.Context, lookbackDays int) ([]dto.MarketSnapshot, error) {
	bars, err := r.fetchBars(ctx, r.cfg.MarketData.Symbol, lookbackDays+260)
	if err != nil {
		return nil, err
	}
	vixBars, err := r.fetchBars(ctx, vixSymbol, lookbackDays+260)
	if err != nil {
		return nil, err
	}

	snapshots := buildSnapshots(r.cfg, r.cfg.MarketData.Symbol, bars, vixBars)
	if len(snapshots) > lookbackDays {
		snapshots = snapshots[len(snapshots)-lookbackDays:]
	}

	r.log.DebugContext(ctx, "Built market history",
		logger.StringField("symbol", r.cfg.MarketData.Symbol),
		logger.IntField("days", len(snapshots)),
	)

	return snapshots, nil
}

func (r *marketDataRepository) fetchBars(ctx context.Context, symbol string, lookbackDays int) ([]dto.OHLCV, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	queryParams := map[string]string{
		"period1":  fmt.Sprintf("%d", now.AddDate(0, 0, -lookbackDays).Unix()),
		"period2":  fmt.Sprintf("%d", now.Unix()),
		"interval": "1d",
	}

	var chartResp dto.ChartResponse
	resp, err := r.httpClient.Get(ctx, "/v8/finance/chart/"+symbol, queryParams, nil, &chartResp)
	if err != nil {
		return nil, dto.NewDataError(symbol, fmt.Errorf("failed to fetch chart: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		r.log.Error("Chart API returned non-OK status",
			logger.StringField("symbol", symbol),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, dto.NewDataError(symbol, fmt.Errorf("chart api returned status %d", resp.StatusCode))
	}
	if chartResp.Chart.Error != nil {
		return nil, dto.NewDataError(symbol, fmt.Errorf("chart api error: %v", chartResp.Chart.Error))
	}
	if len(chartResp.Chart.Result) == 0 || len(chartResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, dto.NewDataError(symbol, fmt.Errorf("no data returned"))
	}

	result := chartResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var bars []dto.OHLCV
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		bars = append(bars, dto.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}

	if len(bars) == 0 {
		return nil, dto.NewDataError(symbol, fmt.Errorf("no usable bars for symbol"))
	}
	return bars, nil
}

// percentileLookback caps the VIX percentile distribution at one
// trading year of trailing observations.
const percentileLookback = 252

// buildSnapshots derives one indicator snapshot per bar, aligning the
// volatility series by date. Days without enough history for the long
// moving average are dropped. Every indicator, the VIX percentile
// included, reads only bars up to and including the snapshot's day.
func buildSnapshots(cfg *config.Config, symbol string, bars, vixBars []dto.OHLCV) []dto.MarketSnapshot {
	longPeriod := 200
	shortPeriod := 50
	if len(cfg.Indicator.SMAPeriods) == 2 {
		shortPeriod = cfg.Indicator.SMAPeriods[0]
		longPeriod = cfg.Indicator.SMAPeriods[1]
	}

	vixIdxByDate := make(map[string]int, len(vixBars))
	vixSeries := make([]float64, 0, len(vixBars))
	for i, b := range vixBars {
		vixIdxByDate[b.Timestamp.Format("2006-01-02")] = i
		vixSeries = append(vixSeries, b.Close)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	macd := indicator.MACD(closes, cfg.Indicator.MACDFast, cfg.Indicator.MACDSlow)
	macdSignal := indicator.EMA(macd, cfg.Indicator.MACDSignal)

	var snapshots []dto.MarketSnapshot
	for i := longPeriod - 1; i < len(bars); i++ {
		window := closes[:i+1]

		smaShort, err := indicator.SMA(window, shortPeriod)
		if err != nil {
			continue
		}
		smaLong, err := indicator.SMA(window, longPeriod)
		if err != nil {
			continue
		}

		di := indicator.ADX(highs[:i+1], lows[:i+1], window, cfg.Indicator.ADXPeriod)

		day := bars[i].Timestamp.Format("2006-01-02")
		vixIdx, ok := vixIdxByDate[day]
		if !ok {
			continue
		}
		vix := vixSeries[vixIdx]

		snapshots = append(snapshots, dto.MarketSnapshot{
			Symbol:        symbol,
			Price:         bars[i].Close,
			SMA50:         smaShort[len(smaShort)-1],
			SMA200:        smaLong[len(smaLong)-1],
			MACD:          macd[i],
			MACDSignal:    macdSignal[i],
			RSI:           indicator.RSI(window, cfg.Indicator.RSIPeriod),
			ADX:           di.ADX,
			PlusDI:        di.PlusDI,
			MinusDI:       di.MinusDI,
			VIX:           vix,
			VIXPercentile: percentileRank(trailingWindow(vixSeries, vixIdx, percentileLookback), vix),
			Volume:        bars[i].Volume,
			Timestamp:     bars[i].Timestamp,
		})
	}

	return snapshots
}

// trailingWindow returns the last n observations up to and including
// idx.
func trailingWindow(series []float64, idx, n int) []float64 {
	start := idx + 1 - n
	if start < 0 {
		start = 0
	}
	return series[start : idx+1]
}

// percentileRank returns the rank of value within the trailing
// distribution, 0-100.
func percentileRank(series []float64, value float64) float64 {
	if len(series) == 0 {
		return 50
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	below := sort.SearchFloat64s(sorted, value)
	return float64(below) / float64(len(sorted)) * 100
}
