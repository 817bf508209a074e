package clmm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"clmmGateway/internal/clmmmath"
	"clmmGateway/internal/model"
	"clmmGateway/internal/outcome"
)

const ratioPrecision = 18

// SwapIntent is one requested trade against a resolved direction.
type SwapIntent struct {
	Direction   Direction
	ByAmountIn  bool
	Amount      decimal.Decimal
	SlippagePct decimal.Decimal
}

// IntentForSide builds the intent for a base-denominated amount: SELL
// spends exactly amount of base, BUY receives exactly amount of base.
func IntentForSide(d Direction, amount, slippagePct decimal.Decimal) SwapIntent {
	return SwapIntent{
		Direction:   d,
		ByAmountIn:  d.Side == SideSell,
		Amount:      amount,
		SlippagePct: slippagePct,
	}
}

// SwapOutcome is a simulated swap expressed in human units.
type SwapOutcome struct {
	PoolAddress    string
	TokenIn        string
	TokenOut       string
	AmountIn       decimal.Decimal
	AmountOut      decimal.Decimal
	Price          decimal.Decimal
	SlippagePct    decimal.Decimal
	MinAmountOut   decimal.Decimal
	MaxAmountIn    decimal.Decimal
	PriceImpactPct decimal.Decimal
	EndSqrtPrice   *big.Int
}

// ExactOutBound is the result of the first exact-out round trip: the input
// the simulator requires for the target output, and that input widened by
// slippage.
type ExactOutBound struct {
	AmountOut        *big.Int
	AmountCalculated *big.Int
	AmountInMax      *big.Int
	EndSqrtPrice     *big.Int
}

// SwapExecution is a settled swap.
type SwapExecution struct {
	Result outcome.Result
	Data   *SwapExecutionData
}

// SwapExecutionData is only present for confirmed swaps.
type SwapExecutionData struct {
	TokenIn                 string
	TokenOut                string
	AmountIn                decimal.Decimal
	AmountOut               decimal.Decimal
	Fee                     decimal.Decimal
	BaseTokenBalanceChange  decimal.Decimal
	QuoteTokenBalanceChange decimal.Decimal
}

// SwapQuoteEngine turns swap intents into simulator calls and reads back
// amounts, slippage bounds and price impact.
type SwapQuoteEngine struct {
	exec   Executor
	settle *settler
}

type swapSimulation struct {
	amountSpecified  *big.Int
	amountCalculated *big.Int
	endSqrtPrice     *big.Int
}

// Quote simulates intent against pool.
func (e *SwapQuoteEngine) Quote(ctx context.Context, pool *model.Pool, intent SwapIntent) (SwapOutcome, error) {
	if err := ValidateSlippage(intent.SlippagePct); err != nil {
		return SwapOutcome{}, err
	}
	d := intent.Direction

	out := SwapOutcome{
		PoolAddress: pool.ID,
		TokenIn:     d.TokenIn.Address,
		TokenOut:    d.TokenOut.Address,
		SlippagePct: intent.SlippagePct,
	}

	var endSqrtPrice *big.Int
	if intent.ByAmountIn {
		amountIn, err := ScaleIn(intent.Amount, d.InputDecimals)
		if err != nil {
			return SwapOutcome{}, err
		}
		sim, err := e.simulate(ctx, pool, SwapParams{
			PoolID:      pool.ID,
			AmountIn:    amountIn,
			AmountOut:   new(big.Int),
			AToB:        d.AToB,
			ByAmountIn:  true,
			SlippagePct: intent.SlippagePct,
		})
		if err != nil {
			return SwapOutcome{}, err
		}
		out.AmountIn = Unscale(sim.amountSpecified, d.InputDecimals)
		out.AmountOut = Unscale(sim.amountCalculated, d.OutputDecimals)
		out.MinAmountOut = Unscale(minWithSlippage(sim.amountCalculated, intent.SlippagePct), d.OutputDecimals)
		out.MaxAmountIn = out.AmountIn
		endSqrtPrice = sim.endSqrtPrice
	} else {
		bound, err := e.BoundExactOut(ctx, pool, intent)
		if err != nil {
			return SwapOutcome{}, err
		}
		// the bounded round trip is what execution submits, so its end
		// price drives the impact; amounts stay those of the bound
		sim, err := e.simulate(ctx, pool, boundedParams(pool, intent, bound))
		if err != nil {
			return SwapOutcome{}, err
		}
		out.AmountIn = Unscale(bound.AmountCalculated, d.InputDecimals)
		out.AmountOut = Unscale(bound.AmountOut, d.OutputDecimals)
		out.MinAmountOut = Unscale(minWithSlippage(bound.AmountOut, intent.SlippagePct), d.OutputDecimals)
		out.MaxAmountIn = Unscale(bound.AmountInMax, d.InputDecimals)
		endSqrtPrice = sim.endSqrtPrice
	}

	if out.AmountIn.IsPositive() {
		out.Price = out.AmountOut.DivRound(out.AmountIn, ratioPrecision)
	}

	impact, err := PriceImpactPct(pool, endSqrtPrice, d.AToB)
	if err != nil {
		return SwapOutcome{}, err
	}
	out.PriceImpactPct = impact
	out.EndSqrtPrice = endSqrtPrice
	return out, nil
}

// BoundExactOut runs the first exact-out round trip and derives
// amountInMax = ceil(amountCalculated * (1 + slippagePct/100)).
func (e *SwapQuoteEngine) BoundExactOut(ctx context.Context, pool *model.Pool, intent SwapIntent) (ExactOutBound, error) {
	if intent.ByAmountIn {
		return ExactOutBound{}, fmt.Errorf("exact-out bound requested for an exact-in intent")
	}
	if err := ValidateSlippage(intent.SlippagePct); err != nil {
		return ExactOutBound{}, err
	}
	d := intent.Direction

	target, err := ScaleIn(intent.Amount, d.OutputDecimals)
	if err != nil {
		return ExactOutBound{}, err
	}
	sim, err := e.simulate(ctx, pool, SwapParams{
		PoolID:      pool.ID,
		AmountIn:    new(big.Int),
		AmountOut:   target,
		AToB:        d.AToB,
		ByAmountIn:  false,
		SlippagePct: intent.SlippagePct,
	})
	if err != nil {
		return ExactOutBound{}, err
	}
	if sim.amountCalculated.Sign() <= 0 {
		return ExactOutBound{}, &QuoteUnavailableError{PoolID: pool.ID, Reason: "simulation requires no input for the requested output"}
	}

	return ExactOutBound{
		AmountOut:        target,
		AmountCalculated: sim.amountCalculated,
		AmountInMax:      maxWithSlippage(sim.amountCalculated, intent.SlippagePct),
		EndSqrtPrice:     sim.endSqrtPrice,
	}, nil
}

// Execute submits the swap. Exact-out intents are first bounded, then sent
// as an exact-in swap of the bounded input.
func (e *SwapQuoteEngine) Execute(ctx context.Context, pool *model.Pool, intent SwapIntent, signer string) (SwapExecution, error) {
	if err := ValidateSlippage(intent.SlippagePct); err != nil {
		return SwapExecution{}, err
	}
	d := intent.Direction

	var params SwapParams
	if intent.ByAmountIn {
		amountIn, err := ScaleIn(intent.Amount, d.InputDecimals)
		if err != nil {
			return SwapExecution{}, err
		}
		params = SwapParams{
			PoolID:      pool.ID,
			AmountIn:    amountIn,
			AmountOut:   new(big.Int),
			AToB:        d.AToB,
			ByAmountIn:  true,
			SlippagePct: intent.SlippagePct,
		}
	} else {
		bound, err := e.BoundExactOut(ctx, pool, intent)
		if err != nil {
			return SwapExecution{}, err
		}
		params = boundedParams(pool, intent, bound)
	}

	resp, err := e.exec.SwapAssets(ctx, signer, params)
	if err != nil {
		return SwapExecution{}, fmt.Errorf("swap on pool %s (amount_in=%s): %w", pool.ID, params.AmountIn, err)
	}

	o, res, err := e.settle.settle(ctx, resp, txContext{operation: "execute swap", wallet: signer, pool: pool.ID})
	if err != nil {
		return SwapExecution{Result: res}, err
	}
	confirmed, ok := o.(outcome.Confirmed)
	if !ok {
		return SwapExecution{Result: res}, nil
	}

	ev, err := outcome.FindEvent(confirmed.Digest, confirmed.Events, outcome.EventAssetSwap)
	if err != nil {
		return SwapExecution{Result: res}, incomplete(res, err)
	}
	rawIn, err := ev.BigInt("amount_in")
	if err != nil {
		return SwapExecution{Result: res}, incomplete(res, err)
	}
	rawOut, err := ev.BigInt("amount_out")
	if err != nil {
		return SwapExecution{Result: res}, incomplete(res, err)
	}

	data := &SwapExecutionData{
		TokenIn:   d.TokenIn.Address,
		TokenOut:  d.TokenOut.Address,
		AmountIn:  Unscale(rawIn, d.InputDecimals),
		AmountOut: Unscale(rawOut, d.OutputDecimals),
		Fee:       *res.Fee,
	}
	if d.Side == SideSell {
		data.BaseTokenBalanceChange = data.AmountIn.Neg()
		data.QuoteTokenBalanceChange = data.AmountOut
	} else {
		data.BaseTokenBalanceChange = data.AmountOut
		data.QuoteTokenBalanceChange = data.AmountIn.Neg()
	}
	return SwapExecution{Result: res, Data: data}, nil
}

func boundedParams(pool *model.Pool, intent SwapIntent, bound ExactOutBound) SwapParams {
	return SwapParams{
		PoolID:      pool.ID,
		AmountIn:    bound.AmountInMax,
		AmountOut:   new(big.Int),
		AToB:        intent.Direction.AToB,
		ByAmountIn:  true,
		SlippagePct: intent.SlippagePct,
	}
}

func (e *SwapQuoteEngine) simulate(ctx context.Context, pool *model.Pool, p SwapParams) (swapSimulation, error) {
	resp, err := e.exec.ComputeSwapResults(ctx, p)
	if err != nil {
		return swapSimulation{}, fmt.Errorf("simulate swap on pool %s (amount_in=%s amount_out=%s): %w", pool.ID, p.AmountIn, p.AmountOut, err)
	}
	if resp == nil {
		return swapSimulation{}, &QuoteUnavailableError{PoolID: pool.ID, Reason: "simulator returned no transaction"}
	}
	if failed, ok := outcome.Classify(resp).(outcome.Failed); ok {
		return swapSimulation{}, &QuoteUnavailableError{PoolID: pool.ID, Reason: failed.Error}
	}

	ev, err := outcome.FindEvent(resp.Digest, resp.Events, outcome.EventSwapResult)
	if err != nil {
		return swapSimulation{}, &QuoteUnavailableError{PoolID: pool.ID, Reason: "simulation produced no swap result event"}
	}

	var sim swapSimulation
	for _, f := range []struct {
		name string
		dst  **big.Int
	}{
		{"amount_specified", &sim.amountSpecified},
		{"amount_calculated", &sim.amountCalculated},
		{"end_sqrt_price", &sim.endSqrtPrice},
	} {
		v, err := ev.BigInt(f.name)
		if err != nil {
			var notFound *outcome.EventNotFoundError
			if errors.As(err, &notFound) {
				return swapSimulation{}, &QuoteUnavailableError{PoolID: pool.ID, Reason: "swap result has no " + f.name}
			}
			return swapSimulation{}, err
		}
		*f.dst = v
	}
	return sim, nil
}

// PriceImpactPct compares the pool price before and after a swap. A sell
// of coinA moves the price down and is measured against the start price;
// the reverse is measured against the end price.
func PriceImpactPct(pool *model.Pool, endSqrtPrice *big.Int, aToB bool) (decimal.Decimal, error) {
	start := clmmmath.PriceFromSqrtPrice(pool.CurrentSqrtPrice, pool.CoinA.Decimals, pool.CoinB.Decimals)
	end := clmmmath.PriceFromSqrtPrice(endSqrtPrice, pool.CoinA.Decimals, pool.CoinB.Decimals)
	if !start.IsPositive() || !end.IsPositive() {
		return decimal.Zero, &QuoteUnavailableError{PoolID: pool.ID, Reason: "pool price is zero"}
	}

	diff := end.Sub(start).Abs()
	if aToB {
		return diff.Mul(hundred).DivRound(start, ratioPrecision), nil
	}
	return diff.Mul(hundred).DivRound(end, ratioPrecision), nil
}
