package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/cache"
	"options-advisor/pkg/httpclient"
	"options-advisor/pkg/logger"
)

type stubHTTPClient struct {
	get      func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error)
	requests int
}

func (s *stubHTTPClient) Get(ctx context.Context, endpoint string, queryParams, headers map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
	s.requests++
	return s.get(endpoint, queryParams, result)
}

func (s *stubHTTPClient) Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
	return nil, errors.New("not supported")
}

func testConfig() *config.Config {
	cfg := config.Default()
	// Keep the limiter out of the way for unit tests.
	cfg.MarketData.MaxRequestPerMin = 60000
	return cfg
}

func newTestCache() cache.Cache {
	return cache.NewCache(time.Minute, time.Minute)
}

// chartPayload fills a ChartResponse with days of closes climbing by step
// per day and ending at the given final value.
func chartPayload(days int, final, step float64, start time.Time) func(result interface{}) {
	return func(result interface{}) {
		resp := result.(*dto.ChartResponse)

		chart := dto.ChartResult{}
		var quote dto.ChartQuote
		for i := 0; i < days; i++ {
			c := final - float64(days-1-i)*step
			chart.Timestamp = append(chart.Timestamp, start.AddDate(0, 0, i).Unix())
			quote.Open = append(quote.Open, c-0.2)
			quote.High = append(quote.High, c+1)
			quote.Low = append(quote.Low, c-1)
			quote.Close = append(quote.Close, c)
			quote.Volume = append(quote.Volume, 1_000_000)
		}
		chart.Indicators.Quote = []dto.ChartQuote{quote}
		resp.Chart.Result = []dto.ChartResult{chart}
	}
}

func marketStub(days int) *stubHTTPClient {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	spy := chartPayload(days, 600, 0.5, start)
	vix := chartPayload(days, 18, 0, start)

	return &stubHTTPClient{
		get: func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
			if endpoint == "/v8/finance/chart/^VIX" {
				vix(result)
			} else {
				spy(result)
			}
			return &httpclient.BaseResponse{StatusCode: 200}, nil
		},
	}
}

func TestGetHistoryBuildsAlignedSnapshots(t *testing.T) {
	cfg := testConfig()
	repo := NewMarketDataRepository(cfg, logger.NewNop(), marketStub(260), newTestCache())

	history, err := repo.GetHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 10)

	last := history[len(history)-1]
	assert.Equal(t, "SPY", last.Symbol)
	assert.Equal(t, 600.0, last.Price)
	assert.Equal(t, 18.0, last.VIX)
	assert.Greater(t, last.SMA50, last.SMA200, "rising closes stack the averages")
	assert.Less(t, last.SMA50, last.Price)
	assert.Equal(t, 100.0, last.RSI, "a monotonic climb maxes the oscillator")
	assert.Greater(t, last.MACD, 0.0)
	assert.InDelta(t, last.MACD, last.MACDSignal, 0.05,
		"signal line converges onto a steady trend's momentum")
	assert.True(t, last.Timestamp.After(history[0].Timestamp))
}

func TestGetSnapshotCachesTheLatestDay(t *testing.T) {
	cfg := testConfig()
	stub := marketStub(260)
	repo := NewMarketDataRepository(cfg, logger.NewNop(), stub, newTestCache())

	first, err := repo.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600.0, first.Price)

	fetched := stub.requests
	second, err := repo.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetched, stub.requests, "second call must come from cache")
}

func TestGetHistoryFailuresRaiseDataError(t *testing.T) {
	tests := []struct {
		name string
		get  func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error)
	}{
		{
			name: "transport failure",
			get: func(string, map[string]string, interface{}) (*httpclient.BaseResponse, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "non-OK status",
			get: func(string, map[string]string, interface{}) (*httpclient.BaseResponse, error) {
				return &httpclient.BaseResponse{StatusCode: 429}, nil
			},
		},
		{
			name: "provider-level error",
			get: func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
				resp := result.(*dto.ChartResponse)
				resp.Chart.Error = map[string]string{"code": "Not Found"}
				return &httpclient.BaseResponse{StatusCode: 200}, nil
			},
		},
		{
			name: "empty result set",
			get: func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
				return &httpclient.BaseResponse{StatusCode: 200}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMarketDataRepository(testConfig(), logger.NewNop(), &stubHTTPClient{get: tt.get}, newTestCache())

			_, err := repo.GetHistory(context.Background(), 10)
			require.Error(t, err)

			var dataErr *dto.DataError
			assert.True(t, errors.As(err, &dataErr), "got %T", err)
		})
	}
}

func makeBars(days int, closeAt func(i int) float64, start time.Time) []dto.OHLCV {
	bars := make([]dto.OHLCV, days)
	for i := range bars {
		c := closeAt(i)
		bars[i] = dto.OHLCV{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1_000_000,
		}
	}
	return bars
}

func TestBuildSnapshotsPercentileUsesOnlyTrailingData(t *testing.T) {
	cfg := testConfig()
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bars := makeBars(260, func(i int) float64 { return 470 + float64(i)*0.5 }, start)

	// Two volatility worlds identical through day 229, diverging only in
	// the final 30 days.
	steady := makeBars(260, func(i int) float64 { return 18 }, start)
	panicking := makeBars(260, func(i int) float64 {
		if i >= 230 {
			return 30
		}
		return 18
	}, start)

	steadySnaps := buildSnapshots(cfg, "SPY", bars, steady)
	panickingSnaps := buildSnapshots(cfg, "SPY", bars, panicking)
	require.Equal(t, len(steadySnaps), len(panickingSnaps))

	for i := range steadySnaps {
		if steadySnaps[i].Timestamp.Before(start.AddDate(0, 0, 230)) {
			assert.Equal(t, steadySnaps[i].VIXPercentile, panickingSnaps[i].VIXPercentile,
				"percentile on %s must not depend on later observations",
				steadySnaps[i].Timestamp.Format("2006-01-02"))
		}
	}

	// Once the spike enters the trailing window the two worlds rank
	// differently.
	last := len(panickingSnaps) - 1
	assert.NotEqual(t, steadySnaps[last].VIXPercentile, panickingSnaps[last].VIXPercentile)
}

func TestTrailingWindow(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, []float64{1, 2, 3}, trailingWindow(series, 2, 252))
	assert.Equal(t, []float64{2, 3, 4}, trailingWindow(series, 3, 3))
	assert.Equal(t, []float64{5}, trailingWindow(series, 4, 1))
}

func TestPercentileRank(t *testing.T) {
	series := []float64{10, 12, 14, 16, 18, 20}

	assert.Equal(t, 0.0, percentileRank(series, 10))
	assert.Equal(t, 50.0, percentileRank(series, 15))
	assert.Equal(t, 100.0, percentileRank(series, 21))
	assert.Equal(t, 50.0, percentileRank(nil, 15))
}

func TestNearestExpiration(t *testing.T) {
	now := time.Now().UTC()

	t.Run("picks the closest future expiration", func(t *testing.T) {
		expirations := []time.Time{
			now.AddDate(0, 0, 7),
			now.AddDate(0, 0, 31),
			now.AddDate(0, 0, 60),
		}

		expiry, dte, err := nearestExpiration(expirations, 30, 5)
		require.NoError(t, err)
		assert.Equal(t, expirations[1], expiry)
		assert.InDelta(t, 31, dte, 1)
	})

	t.Run("rejects expirations outside tolerance", func(t *testing.T) {
		expirations := []time.Time{now.AddDate(0, 0, 7), now.AddDate(0, 0, 60)}

		_, _, err := nearestExpiration(expirations, 30, 5)
		var dataErr *dto.DataError
		require.True(t, errors.As(err, &dataErr))
	})

	t.Run("ignores expired dates", func(t *testing.T) {
		expirations := []time.Time{now.AddDate(0, 0, -10)}

		_, _, err := nearestExpiration(expirations, 30, 5)
		require.Error(t, err)
	})
}

func TestGetChainMapsProviderQuotes(t *testing.T) {
	cfg := testConfig()
	expiry := time.Now().UTC().AddDate(0, 0, 30).Truncate(time.Second)

	stub := &stubHTTPClient{
		get: func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
			resp := result.(*dto.OptionChainResponse)
			chainResult := dto.OptionChainResult{
				UnderlyingSymbol: "SPY",
				ExpirationDates:  []int64{expiry.Unix()},
			}
			chainResult.Quote.RegularMarketPrice = 600

			if _, ok := queryParams["date"]; ok {
				chainResult.Options = []dto.OptionExpiration{{
					ExpirationDate: expiry.Unix(),
					Calls: []dto.OptionQuoteRecord{
						{Strike: 610, Bid: 2.1, Ask: 2.3, Volume: 100, ImpliedVolatility: 0.17},
					},
					Puts: []dto.OptionQuoteRecord{
						{Strike: 590, Bid: 2.4, Ask: 2.6, Volume: 150, ImpliedVolatility: 0.19},
						{Strike: 585, Bid: 1.7, Ask: 1.9, Volume: 50, ImpliedVolatility: 0.20},
					},
				}}
			}
			resp.OptionChain.Result = []dto.OptionChainResult{chainResult}
			return &httpclient.BaseResponse{StatusCode: 200}, nil
		},
	}

	repo := NewOptionChainRepository(cfg, logger.NewNop(), stub, newTestCache())

	chain, err := repo.GetChain(context.Background(), 30, 5)
	require.NoError(t, err)

	assert.Equal(t, "SPY", chain.Symbol)
	assert.Equal(t, 600.0, chain.UnderlyingPrice)
	assert.InDelta(t, 30, chain.DTE, 1)
	assert.Len(t, chain.Puts, 2)
	assert.Len(t, chain.Calls, 1)
	assert.InDelta(t, 2.5, chain.Puts[590].Mid(), 1e-9)
	assert.InDelta(t, 2.0, chain.PutCallRatio, 1e-9)

	// Second call is served from cache.
	fetched := stub.requests
	_, err = repo.GetChain(context.Background(), 30, 5)
	require.NoError(t, err)
	assert.Equal(t, fetched, stub.requests)
}

func TestGetChainRejectsUnreachableTargetDTE(t *testing.T) {
	expiry := time.Now().UTC().AddDate(0, 0, 90)

	stub := &stubHTTPClient{
		get: func(endpoint string, queryParams map[string]string, result interface{}) (*httpclient.BaseResponse, error) {
			resp := result.(*dto.OptionChainResponse)
			resp.OptionChain.Result = []dto.OptionChainResult{{
				UnderlyingSymbol: "SPY",
				ExpirationDates:  []int64{expiry.Unix()},
			}}
			return &httpclient.BaseResponse{StatusCode: 200}, nil
		},
	}

	repo := NewOptionChainRepository(testConfig(), logger.NewNop(), stub, newTestCache())

	_, err := repo.GetChain(context.Background(), 30, 5)
	require.Error(t, err)

	var dataErr *dto.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Contains(t, dataErr.Error(), fmt.Sprintf("%d DTE target", 30))
}
