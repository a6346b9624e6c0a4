package strategy

import (
	"math"

	"options-advisor/internal/dto"
	"options-advisor/internal/pricing"
	"options-advisor/pkg/logger"
)

// Strike offsets from spot, per structure. Credit spreads sell close to
// the money, condors park both short strikes a little further out.
const (
	creditSpreadOffset = 0.02
	condorOffset       = 0.03
	debitShortOffset   = 0.03
)

// BuildParameters computes the strike, credit, loss and breakeven
// parameters for the chosen strategy against the available strikes.
// It fails with a StrategyError when the chain holds no usable strikes.
func (s *Selector) BuildParameters(strategy dto.StrategyType, chain *dto.OptionChainSlice) (*dto.StrategyParameters, error) {
	if strategy == dto.NoTrade {
		return &dto.StrategyParameters{Strategy: dto.NoTrade, DTE: chain.DTE, Expiry: chain.Expiration}, nil
	}

	var (
		params *dto.StrategyParameters
		err    error
	)

	switch strategy {
	case dto.BullPutSpread:
		params, err = s.buildCreditVertical(strategy, chain, dto.OptionPut, creditSpreadOffset)
	case dto.BearCallSpread:
		params, err = s.buildCreditVertical(strategy, chain, dto.OptionCall, creditSpreadOffset)
	case dto.BullCallSpread:
		params, err = s.buildDebitVertical(strategy, chain, dto.OptionCall)
	case dto.BearPutSpread:
		params, err = s.buildDebitVertical(strategy, chain, dto.OptionPut)
	case dto.IronCondor:
		params, err = s.buildIronCondor(chain, condorOffset)
	case dto.IronButterfly:
		params, err = s.buildIronCondor(chain, 0)
	case dto.CalendarSpread:
		params, err = s.buildCalendar(chain)
	default:
		return nil, dto.NewStrategyError(strategy, "unsupported strategy id reached the parameter builder")
	}

	if err != nil {
		return nil, err
	}

	if err := validate(params); err != nil {
		return nil, err
	}

	s.log.Debug("Built strategy parameters",
		logger.StringField("strategy", string(params.Strategy)),
		logger.FloatField("sell_strike", params.SellStrike),
		logger.FloatField("buy_strike", params.BuyStrike),
		logger.FloatField("target_credit", params.TargetCredit),
		logger.FloatField("prob_of_profit", params.ProbOfProfit),
	)

	return params, nil
}

// buildCreditVertical sells the strike nearest the target offset and
// buys protection one configured width further out.
func (s *Selector) buildCreditVertical(strategy dto.StrategyType, chain *dto.OptionChainSlice, optType dto.OptionType, offset float64) (*dto.StrategyParameters, error) {
	spot := chain.UnderlyingPrice
	width := s.cfg.Strategy.SpreadWidth

	var target float64
	if optType == dto.OptionPut {
		target = spot * (1 - offset)
	} else {
		target = spot * (1 + offset)
	}

	strikes := chain.Strikes(optType)
	sellStrike, err := nearestStrike(strategy, strikes, target)
	if err != nil {
		return nil, err
	}

	var buyStrike float64
	if optType == dto.OptionPut {
		buyStrike, err = strikeAtDistance(strategy, strikes, sellStrike, -width)
	} else {
		buyStrike, err = strikeAtDistance(strategy, strikes, sellStrike, width)
	}
	if err != nil {
		return nil, err
	}

	actualWidth := math.Abs(sellStrike - buyStrike)
	credit, sellIV, buyIV := s.legCredit(chain, optType, sellStrike, buyStrike, actualWidth)

	maxLoss := actualWidth - credit
	breakeven := pricing.Breakeven(sellStrike, credit, optType)
	pop := pricing.ProbabilityOfProfit(spot, pricing.SpreadQuote{
		SellStrike: sellStrike,
		BuyStrike:  buyStrike,
		SellIV:     sellIV,
		BuyIV:      buyIV,
		NetCredit:  credit,
	}, optType, chain.DTE)

	return &dto.StrategyParameters{
		Strategy:     strategy,
		SellStrike:   sellStrike,
		BuyStrike:    buyStrike,
		OptionType:   optType,
		TargetCredit: credit,
		MaxLoss:      maxLoss,
		MaxProfit:    credit,
		ReturnOnRisk: safeRatio(credit, maxLoss),
		DTE:          chain.DTE,
		Expiry:       chain.Expiration,
		Breakeven:    breakeven,
		ProbOfProfit: pop / 100,
	}, nil
}

// buildDebitVertical buys near the money and sells the wing at the
// target offset.
func (s *Selector) buildDebitVertical(strategy dto.StrategyType, chain *dto.OptionChainSlice, optType dto.OptionType) (*dto.StrategyParameters, error) {
	spot := chain.UnderlyingPrice

	var sellTarget float64
	if optType == dto.OptionCall {
		sellTarget = spot * (1 + debitShortOffset)
	} else {
		sellTarget = spot * (1 - debitShortOffset)
	}

	strikes := chain.Strikes(optType)
	buyStrike, err := nearestStrike(strategy, strikes, spot)
	if err != nil {
		return nil, err
	}
	sellStrike, err := nearestStrike(strategy, strikes, sellTarget)
	if err != nil {
		return nil, err
	}
	if sellStrike == buyStrike {
		return nil, dto.NewStrategyError(strategy, "no wing strike available beyond the long strike")
	}

	width := math.Abs(sellStrike - buyStrike)

	var debit, buyIV, sellIV float64
	buyQuote, buyOK := chain.Quote(optType, buyStrike)
	sellQuote, sellOK := chain.Quote(optType, sellStrike)
	if buyOK && sellOK && buyQuote.Mid() > 0 && sellQuote.Mid() > 0 {
		debit = buyQuote.Mid() - sellQuote.Mid()
		buyIV, sellIV = buyQuote.IV, sellQuote.IV
	}
	if debit <= 0 {
		debit = (1 - s.cfg.Strategy.CreditFraction) * width
	}
	if debit > width {
		debit = width
	}

	maxProfit := width - debit

	var breakeven float64
	if optType == dto.OptionCall {
		breakeven = buyStrike + debit
	} else {
		breakeven = buyStrike - debit
	}

	// Approximate PoP as the chance of reaching breakeven, mirrored from
	// the credit-side computation.
	pop := pricing.ProbabilityOfProfit(spot, pricing.SpreadQuote{
		SellStrike: breakeven,
		BuyStrike:  buyStrike,
		SellIV:     avgOrDefault(buyIV, sellIV),
		BuyIV:      avgOrDefault(sellIV, buyIV),
		NetCredit:  0,
	}, oppositeType(optType), chain.DTE)

	return &dto.StrategyParameters{
		Strategy:     strategy,
		SellStrike:   sellStrike,
		BuyStrike:    buyStrike,
		OptionType:   optType,
		TargetCredit: 0,
		MaxLoss:      debit,
		MaxProfit:    maxProfit,
		ReturnOnRisk: safeRatio(maxProfit, debit),
		DTE:          chain.DTE,
		Expiry:       chain.Expiration,
		Breakeven:    breakeven,
		ProbOfProfit: pop / 100,
	}, nil
}

// buildIronCondor builds both credit wings. A zero offset degenerates to
// an iron butterfly with the short strikes at the money. The reported
// strike pair is the put side, which carries the downside risk.
func (s *Selector) buildIronCondor(chain *dto.OptionChainSlice, offset float64) (*dto.StrategyParameters, error) {
	strategy := dto.IronCondor
	if offset == 0 {
		strategy = dto.IronButterfly
	}

	putSide, err := s.buildCreditVertical(strategy, chain, dto.OptionPut, offset)
	if err != nil {
		return nil, err
	}
	callSide, err := s.buildCreditVertical(strategy, chain, dto.OptionCall, offset)
	if err != nil {
		return nil, err
	}

	credit := putSide.TargetCredit + callSide.TargetCredit
	width := math.Abs(putSide.SellStrike - putSide.BuyStrike)
	if callWidth := math.Abs(callSide.SellStrike - callSide.BuyStrike); callWidth > width {
		width = callWidth
	}
	if credit > width {
		credit = width
	}
	maxLoss := width - credit

	// Only one side can lose at expiration; PoP is the chance of
	// finishing inside both breakevens.
	pop := putSide.ProbOfProfit + callSide.ProbOfProfit - 1
	if pop < 0 {
		pop = 0
	}

	return &dto.StrategyParameters{
		Strategy:     strategy,
		SellStrike:   putSide.SellStrike,
		BuyStrike:    putSide.BuyStrike,
		OptionType:   dto.OptionPut,
		TargetCredit: credit,
		MaxLoss:      maxLoss,
		MaxProfit:    credit,
		ReturnOnRisk: safeRatio(credit, maxLoss),
		DTE:          chain.DTE,
		Expiry:       chain.Expiration,
		Breakeven:    putSide.SellStrike - credit,
		ProbOfProfit: pop,
	}, nil
}

// buildCalendar approximates a calendar with the at-the-money put. The
// slice holds a single expiration, so the far leg is modeled as a debit
// equal to half the near-leg value.
func (s *Selector) buildCalendar(chain *dto.OptionChainSlice) (*dto.StrategyParameters, error) {
	strikes := chain.Strikes(dto.OptionPut)
	atm, err := nearestStrike(dto.CalendarSpread, strikes, chain.UnderlyingPrice)
	if err != nil {
		return nil, err
	}

	var debit float64
	if q, ok := chain.Quote(dto.OptionPut, atm); ok && q.Mid() > 0 {
		debit = q.Mid() / 2
	} else {
		debit = s.cfg.Strategy.CreditFraction * s.cfg.Strategy.SpreadWidth
	}

	return &dto.StrategyParameters{
		Strategy:     dto.CalendarSpread,
		SellStrike:   atm,
		BuyStrike:    atm,
		OptionType:   dto.OptionPut,
		TargetCredit: 0,
		MaxLoss:      debit,
		MaxProfit:    debit, // time decay capture, roughly symmetric
		ReturnOnRisk: 1,
		DTE:          chain.DTE,
		Expiry:       chain.Expiration,
		Breakeven:    atm,
		ProbOfProfit: 0.5,
	}, nil
}

// legCredit prices the short and long legs from quotes when both sides
// have a market, falling back to a fixed fraction of the spread width.
func (s *Selector) legCredit(chain *dto.OptionChainSlice, optType dto.OptionType, sellStrike, buyStrike, width float64) (credit, sellIV, buyIV float64) {
	sellQuote, sellOK := chain.Quote(optType, sellStrike)
	buyQuote, buyOK := chain.Quote(optType, buyStrike)

	if sellOK && buyOK {
		sellIV, buyIV = sellQuote.IV, buyQuote.IV
		if sellQuote.Mid() > 0 && buyQuote.Mid() > 0 {
			credit = sellQuote.Mid() - buyQuote.Mid()
		}
	}

	if credit <= 0 {
		credit = s.cfg.Strategy.CreditFraction * width
	}
	if credit > width {
		credit = width
	}
	return credit, sellIV, buyIV
}

// nearestStrike picks the available strike closest to target.
func nearestStrike(strategy dto.StrategyType, strikes []float64, target float64) (float64, error) {
	if len(strikes) == 0 {
		return 0, dto.NewStrategyError(strategy, "option chain holds no strikes")
	}

	best := strikes[0]
	bestDist := math.Abs(strikes[0] - target)
	for _, k := range strikes[1:] {
		if d := math.Abs(k - target); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, nil
}

// strikeAtDistance returns the strike nearest to from+distance on the
// correct side of from; there must be at least one strike beyond it.
func strikeAtDistance(strategy dto.StrategyType, strikes []float64, from, distance float64) (float64, error) {
	target := from + distance

	best := 0.0
	bestDist := math.MaxFloat64
	for _, k := range strikes {
		if distance < 0 && k >= from {
			continue
		}
		if distance > 0 && k <= from {
			continue
		}
		if d := math.Abs(k - target); d < bestDist {
			best, bestDist = k, d
		}
	}

	if bestDist == math.MaxFloat64 {
		return 0, dto.NewStrategyError(strategy, "no strike available to complete the spread")
	}
	return best, nil
}

// validate enforces the StrategyParameters invariants before the
// parameters leave the selector.
func validate(p *dto.StrategyParameters) error {
	if p.MaxLoss < 0 {
		return dto.NewValidationError("max_loss", "must be non-negative")
	}
	if p.Strategy.IsCredit() && p.SellStrike != p.BuyStrike {
		width := math.Abs(p.SellStrike - p.BuyStrike)
		if p.TargetCredit > width {
			return dto.NewValidationError("target_credit", "exceeds spread width")
		}
	}
	if p.ProbOfProfit < 0 || p.ProbOfProfit > 1 {
		return dto.NewValidationError("prob_of_profit", "outside [0,1]")
	}
	return nil
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func oppositeType(t dto.OptionType) dto.OptionType {
	if t == dto.OptionCall {
		return dto.OptionPut
	}
	return dto.OptionCall
}

func avgOrDefault(a, b float64) float64 {
	if a > 0 {
		return a
	}
	if b > 0 {
		return b
	}
	return 0.20
}
