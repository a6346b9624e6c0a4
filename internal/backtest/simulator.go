package backtest

import (
	"context"
	"math"
	"time"

	"options-advisor/config"
	"options-advisor/internal/classifier"
	"options-advisor/internal/dto"
	"options-advisor/internal/pricing"
	"options-advisor/internal/risk"
	"options-advisor/internal/strategy"
	"options-advisor/pkg/logger"
	"options-advisor/pkg/utils"
)

// Simulator replays historical snapshots through the classifier,
// selector and sizer, opening hypothetical trades and accounting for
// their outcomes. It is the only component with memory across
// iterations; that state lives for one Run call and must not be shared
// across concurrent simulators.
type Simulator struct {
	cfg      *config.Config
	log      *logger.Logger
	bias     *classifier.BiasClassifier
	vol      *classifier.VolatilityClassifier
	selector *strategy.Selector
	sizer    *risk.Sizer
}

func NewSimulator(cfg *config.Config, log *logger.Logger, bias *classifier.BiasClassifier, vol *classifier.VolatilityClassifier, selector *strategy.Selector, sizer *risk.Sizer) *Simulator {
	return &Simulator{cfg: cfg, log: log, bias: bias, vol: vol, selector: selector, sizer: sizer}
}

// openPosition is the Open-state bookkeeping for one simulated trade.
type openPosition struct {
	entryIdx   int
	entryDate  time.Time
	entryPrice float64
	params     *dto.StrategyParameters
	metrics    dto.RiskMetrics
	maxDays    int
}

// Run simulates the full history. A day that cannot open a trade is a
// skip, never a fatal error; days are processed strictly sequentially
// because later entries depend on the updated balance and drawdown.
func (s *Simulator) Run(ctx context.Context, history []dto.MarketSnapshot, initialBalance float64) (*dto.BacktestResult, error) {
	if initialBalance <= 0 {
		return nil, dto.NewValidationError("initial_balance", "must be positive")
	}
	if len(history) == 0 {
		return nil, dto.NewDataError("backtest", dto.NewValidationError("history", "no snapshots supplied"))
	}

	var (
		balance     = initialBalance
		peak        = initialBalance
		drawdown    float64
		maxDrawdown float64
		trades      []dto.TradeResult
		returns     []float64
		prevDay     time.Time
	)

	for i := 0; i < len(history); i++ {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		snap := &history[i]

		if s.cfg.Backtest.MonthlySampling && !utils.MidMonthDay(snap.Timestamp, prevDay) {
			prevDay = snap.Timestamp
			continue
		}
		prevDay = snap.Timestamp

		// Idle: stay out below the minimum signal threshold.
		assessment := s.bias.Assess(snap)
		if assessment.Strength < s.cfg.Backtest.MinStrength {
			continue
		}

		// Candidate: pick a structure and build its parameters against a
		// chain synthesized from the day's volatility surface.
		volProfile := s.vol.Classify(snap.VIX, snap.VIXPercentile)
		strategyType := s.selector.Select(assessment, volProfile, snap)
		if strategyType == dto.NoTrade {
			continue
		}

		chain := s.syntheticChain(snap)
		params, err := s.selector.BuildParameters(strategyType, chain)
		if err != nil {
			s.log.WarnContext(ctx, "Skipping day, could not build parameters",
				logger.StringField("date", snap.Timestamp.Format("2006-01-02")),
				logger.ErrorField(err),
			)
			continue
		}

		// Open: size against the running balance and drawdown.
		account := dto.AccountInfo{Balance: balance, CurrentDrawdown: drawdown}
		metrics := s.sizer.Size(account, assessment, volProfile, params, snap.Price)

		pos := &openPosition{
			entryIdx:   i,
			entryDate:  snap.Timestamp,
			entryPrice: snap.Price,
			params:     params,
			metrics:    metrics,
			maxDays:    minInt(params.DTE, s.cfg.Backtest.MaxHoldingDays),
		}

		exitIdx, exitPrice, reason := s.findExit(history, pos)
		pl := s.tradePL(pos, exitPrice)

		trades = append(trades, dto.TradeResult{
			EntryDate:  pos.entryDate,
			ExitDate:   history[exitIdx].Timestamp,
			Strategy:   params.Strategy,
			EntryPrice: pos.entryPrice,
			ExitPrice:  exitPrice,
			ProfitLoss: pl,
			ExitReason: reason,
			Risk:       metrics,
		})
		returns = append(returns, pl/balance)

		// Closed: roll the equity state forward.
		balance += pl
		if balance > peak {
			peak = balance
		}
		drawdown = clamp01((peak - balance) / peak)
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}

		i = exitIdx
	}

	result := aggregate(history, trades, returns, initialBalance, balance, maxDrawdown)

	s.log.InfoContext(ctx, "Backtest simulation completed",
		logger.IntField("total_trades", result.TotalTrades),
		logger.FloatField("win_rate", result.WinRate),
		logger.FloatField("final_balance", result.FinalBalance),
	)

	return result, nil
}

// findExit scans forward from entry for, in priority order, a stop-loss
// cross, the profit-target move, and a time exit at half the holding
// period when still unprofitable. Falls back to a forced close at
// min(entry+maxDays, end of data).
func (s *Simulator) findExit(history []dto.MarketSnapshot, pos *openPosition) (exitIdx int, exitPrice float64, reason string) {
	last := minInt(pos.entryIdx+pos.maxDays, len(history)-1)
	halfway := pos.entryIdx + pos.maxDays/2

	for j := pos.entryIdx + 1; j <= last; j++ {
		price := history[j].Price

		if s.stopLossHit(pos, price) {
			return j, price, "stop loss"
		}
		if s.profitTargetHit(pos, price) {
			return j, price, "profit target"
		}
		if j >= halfway && !s.favorable(pos, price) {
			return j, price, "time exit"
		}
	}

	return last, history[last].Price, "expiration"
}

func (s *Simulator) stopLossHit(pos *openPosition, price float64) bool {
	switch {
	case pos.params.Strategy.IsBullish():
		return price <= pos.entryPrice*(1-s.cfg.Backtest.StopLossPct)
	case pos.params.Strategy.IsBearish():
		return price >= pos.entryPrice*(1+s.cfg.Backtest.StopLossPct)
	default:
		// Neutral structures stop out on a breakout either side.
		move := math.Abs(price-pos.entryPrice) / pos.entryPrice
		return move >= s.cfg.Backtest.StopLossPct*2
	}
}

func (s *Simulator) profitTargetHit(pos *openPosition, price float64) bool {
	pct := s.cfg.Backtest.ProfitMovePct
	switch {
	case pos.params.Strategy.IsBullish():
		return price >= pos.entryPrice*(1+pct)
	case pos.params.Strategy.IsBearish():
		return price <= pos.entryPrice*(1-pct)
	default:
		return false // neutral spreads profit from time, not movement
	}
}

// favorable reports whether the exit price moved the right way for the
// structure.
func (s *Simulator) favorable(pos *openPosition, price float64) bool {
	switch {
	case pos.params.Strategy.IsBullish():
		return price > pos.entryPrice
	case pos.params.Strategy.IsBearish():
		return price < pos.entryPrice
	default:
		move := math.Abs(price-pos.entryPrice) / pos.entryPrice
		return move <= s.cfg.Backtest.ProfitMovePct
	}
}

// tradePL converts the exit into currency. positionValue is the number
// of spread units the sized risk buys; a favorable close collects the
// structure's profit, an unfavorable one pays its defined loss.
func (s *Simulator) tradePL(pos *openPosition, exitPrice float64) float64 {
	if pos.params.MaxLoss <= 0 {
		return 0
	}

	positionValue := pos.metrics.MaxRisk / pos.params.MaxLoss

	profit := pos.params.TargetCredit
	if profit == 0 {
		profit = pos.params.MaxProfit
	}

	if s.favorable(pos, exitPrice) {
		return positionValue * profit
	}
	return -positionValue * pos.params.MaxLoss
}

// syntheticChain builds an option chain slice around the day's price so
// the parameter builder can run inside the simulation. Strikes step by
// the configured spread width; leg values come from the pricing model
// with the day's volatility index as the surface level.
func (s *Simulator) syntheticChain(snap *dto.MarketSnapshot) *dto.OptionChainSlice {
	width := s.cfg.Strategy.SpreadWidth
	if width <= 0 {
		width = 5
	}
	dte := s.cfg.Strategy.TargetDTE
	iv := snap.VIX / 100
	if iv <= 0 {
		iv = 0.20
	}

	chain := &dto.OptionChainSlice{
		Symbol:          snap.Symbol,
		Expiration:      snap.Timestamp.AddDate(0, 0, dte),
		DTE:             dte,
		UnderlyingPrice: snap.Price,
		IVPercentile:    snap.VIXPercentile,
		Calls:           make(map[float64]dto.OptionQuote),
		Puts:            make(map[float64]dto.OptionQuote),
	}

	lowest := math.Floor(snap.Price*0.90/width) * width
	highest := math.Ceil(snap.Price*1.10/width) * width

	for strike := lowest; strike <= highest; strike += width {
		// A mild put skew: IV rises as strikes fall below spot.
		legIV := iv * (1 + 0.5*(snap.Price-strike)/snap.Price)
		if legIV < 0.05 {
			legIV = 0.05
		}

		putMid := pricing.PutPrice(snap.Price, strike, legIV, dte)
		callMid := pricing.CallPrice(snap.Price, strike, legIV, dte)

		chain.Puts[strike] = dto.OptionQuote{Strike: strike, Bid: putMid * 0.98, Ask: putMid * 1.02, IV: legIV}
		chain.Calls[strike] = dto.OptionQuote{Strike: strike, Bid: callMid * 0.98, Ask: callMid * 1.02, IV: legIV}
	}

	return chain
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
