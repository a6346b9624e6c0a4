package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-advisor/internal/dto"
	"options-advisor/internal/service"
)

type stubAdvisor struct {
	rec *dto.StrategyRecommendation
	err error
}

func (s *stubAdvisor) GetRecommendation(ctx context.Context, account dto.AccountInfo) (*dto.StrategyRecommendation, error) {
	return s.rec, s.err
}

type stubBacktester struct {
	result *dto.BacktestResult
	err    error
}

func (s *stubBacktester) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	return s.result, s.err
}

func newTestHandler(advisor service.AdvisorService, backtester service.BacktestService) *HttpAPIHandler {
	e := echo.New()
	h := NewHttpAPIHandler(context.Background(), e, goValidator.New(), &service.Service{
		AdvisorService:  advisor,
		BacktestService: backtester,
	})
	h.SetupRoutes()
	return h
}

func doRequest(h *HttpAPIHandler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

func TestRecommendationEndpoint(t *testing.T) {
	t.Run("returns the recommendation", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{rec: &dto.StrategyRecommendation{
			Strategy:       dto.BullPutSpread,
			Bias:           dto.BiasBullish,
			SignalStrength: 3.5,
			GeneratedAt:    time.Now().UTC(),
		}}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/recommendation", `{"balance": 50000, "current_drawdown": 0.05}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), string(dto.BullPutSpread))
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/recommendation", `{"balance": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a non-positive balance", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/recommendation", `{"balance": 0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps upstream data failures to 502", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{
			err: dto.NewDataError("yahoo_chart", errors.New("upstream timeout")),
		}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/recommendation", `{"balance": 50000}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "yahoo_chart")
	})

	t.Run("maps other failures to 500", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{
			err: dto.NewStrategyError(dto.BullPutSpread, "option chain holds no strikes"),
		}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/recommendation", `{"balance": 50000}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestBacktestEndpoint(t *testing.T) {
	t.Run("returns the result", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{result: &dto.BacktestResult{
			InitialBalance: 100_000,
			FinalBalance:   104_500,
			TotalTrades:    12,
			WinRate:        0.75,
		}})

		rec := doRequest(h, http.MethodPost, "/api/backtest", `{"lookback_days": 365, "initial_balance": 100000}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_trades":12`)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{})

		rec := doRequest(h, http.MethodPost, "/api/backtest", `{"lookback_days": 365}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps upstream data failures to 502", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{
			err: dto.NewDataError("yahoo_chart", errors.New("rate limited")),
		})

		rec := doRequest(h, http.MethodPost, "/api/backtest", `{"lookback_days": 365, "initial_balance": 100000}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "yahoo_chart")
	})

	t.Run("maps simulation failures to 500", func(t *testing.T) {
		h := newTestHandler(&stubAdvisor{}, &stubBacktester{
			err: dto.NewValidationError("initial_balance", "must be positive"),
		})

		rec := doRequest(h, http.MethodPost, "/api/backtest", `{"lookback_days": 365, "initial_balance": 100000}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
