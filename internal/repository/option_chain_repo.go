package repository

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/cache"
	"options-advisor/pkg/httpclient"
	"options-advisor/pkg/logger"
)

// OptionChainRepository fetches one expiration's worth of option quotes.
// It raises a DataError when no expiration exists within tolerance of
// the target.
type OptionChainRepository interface {
	GetChain(ctx context.Context, targetDTE, toleranceDays int) (*dto.OptionChainSlice, error)
}

type optionChainRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient httpclient.HTTPClient
	cache      cache.Cache
}

func NewOptionChainRepository(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient, c cache.Cache) OptionChainRepository {
	return &optionChainRepository{
		cfg:        cfg,
		log:        log,
		httpClient: client,
		cache:      c,
	}
}

func (r *optionChainRepository) GetChain(ctx context.Context, targetDTE, toleranceDays int) (*dto.OptionChainSlice, error) {
	symbol := r.cfg.MarketData.Symbol
	cacheKey := fmt.Sprintf("chain:%s:%d", symbol, targetDTE)
	if chain, ok := cache.GetTyped[*dto.OptionChainSlice](r.cache, cacheKey); ok {
		return chain, nil
	}

	expirations, err := r.fetchExpirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expiry, dte, err := nearestExpiration(expirations, targetDTE, toleranceDays)
	if err != nil {
		return nil, err
	}

	chain, err := r.fetchChain(ctx, symbol, expiry)
	if err != nil {
		return nil, err
	}
	chain.DTE = dte

	r.log.DebugContext(ctx, "Fetched option chain",
		logger.StringField("symbol", symbol),
		logger.StringField("expiration", expiry.Format("2006-01-02")),
		logger.IntField("dte", dte),
		logger.IntField("puts", len(chain.Puts)),
		logger.IntField("calls", len(chain.Calls)),
	)

	r.cache.Set(cacheKey, chain, r.cfg.Cache.ChainTTL)
	return chain, nil
}

func (r *optionChainRepository) fetchExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	var chainResp dto.OptionChainResponse
	resp, err := r.httpClient.Get(ctx, "/v7/finance/options/"+symbol, nil, nil, &chainResp)
	if err != nil {
		return nil, dto.NewDataError(symbol, fmt.Errorf("failed to fetch expirations: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dto.NewDataError(symbol, fmt.Errorf("options api returned status %d", resp.StatusCode))
	}
	if len(chainResp.OptionChain.Result) == 0 {
		return nil, dto.NewDataError(symbol, fmt.Errorf("no option data returned"))
	}

	result := chainResp.OptionChain.Result[0]
	expirations := make([]time.Time, 0, len(result.ExpirationDates))
	for _, ts := range result.ExpirationDates {
		expirations = append(expirations, time.Unix(ts, 0).UTC())
	}
	return expirations, nil
}

func (r *optionChainRepository) fetchChain(ctx context.Context, symbol string, expiry time.Time) (*dto.OptionChainSlice, error) {
	queryParams := map[string]string{
		"date": fmt.Sprintf("%d", expiry.Unix()),
	}

	var chainResp dto.OptionChainResponse
	resp, err := r.httpClient.Get(ctx, "/v7/finance/options/"+symbol, queryParams, nil, &chainResp)
	if err != nil {
		return nil, dto.NewDataError(symbol, fmt.Errorf("failed to fetch chain: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dto.NewDataError(symbol, fmt.Errorf("options api returned status %d", resp.StatusCode))
	}
	if len(chainResp.OptionChain.Result) == 0 || len(chainResp.OptionChain.Result[0].Options) == 0 {
		return nil, dto.NewDataError(symbol, fmt.Errorf("no chain returned for expiration %s", expiry.Format("2006-01-02")))
	}

	result := chainResp.OptionChain.Result[0]
	options := result.Options[0]

	chain := &dto.OptionChainSlice{
		Symbol:          symbol,
		Expiration:      expiry,
		UnderlyingPrice: result.Quote.RegularMarketPrice,
		Calls:           make(map[float64]dto.OptionQuote, len(options.Calls)),
		Puts:            make(map[float64]dto.OptionQuote, len(options.Puts)),
	}

	var putVolume, callVolume int64
	for _, rec := range options.Calls {
		chain.Calls[rec.Strike] = toQuote(rec)
		callVolume += rec.Volume
	}
	for _, rec := range options.Puts {
		chain.Puts[rec.Strike] = toQuote(rec)
		putVolume += rec.Volume
	}
	if callVolume > 0 {
		chain.PutCallRatio = float64(putVolume) / float64(callVolume)
	}

	return chain, nil
}

func toQuote(rec dto.OptionQuoteRecord) dto.OptionQuote {
	return dto.OptionQuote{
		Strike:       rec.Strike,
		Bid:          rec.Bid,
		Ask:          rec.Ask,
		Last:         rec.LastPrice,
		Volume:       rec.Volume,
		OpenInterest: rec.OpenInterest,
		IV:           rec.ImpliedVolatility,
	}
}

// nearestExpiration picks the expiration closest to targetDTE days out,
// failing when none falls within the tolerance.
func nearestExpiration(expirations []time.Time, targetDTE, toleranceDays int) (time.Time, int, error) {
	if len(expirations) == 0 {
		return time.Time{}, 0, dto.NewDataError("options", fmt.Errorf("no expirations available"))
	}

	now := time.Now().UTC()
	var (
		best     time.Time
		bestDTE  int
		bestDiff = math.MaxInt32
	)

	for _, exp := range expirations {
		dte := int(math.Round(exp.Sub(now).Hours() / 24))
		if dte <= 0 {
			continue
		}
		diff := dte - targetDTE
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDTE, bestDiff = exp, dte, diff
		}
	}

	if bestDiff > toleranceDays {
		return time.Time{}, 0, dto.NewDataError("options",
			fmt.Errorf("no expiration within %d days of %d DTE target", toleranceDays, targetDTE))
	}
	return best, bestDTE, nil
}
