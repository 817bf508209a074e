package clmm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmmmath"
	"clmmGateway/internal/model"
	"clmmGateway/internal/outcome"
)

// PositionQuote is the deposit needed to mint liquidity over a tick range.
// Base is the pool's coinA and quote its coinB.
type PositionQuote struct {
	LowerTick           int32
	UpperTick           int32
	BaseLimited         bool
	BaseTokenAmount     decimal.Decimal
	QuoteTokenAmount    decimal.Decimal
	BaseTokenAmountMax  decimal.Decimal
	QuoteTokenAmountMax decimal.Decimal
	Liquidity           *big.Int
}

// PositionRequest opens a position over a price range.
type PositionRequest struct {
	PoolID           string
	LowerPrice       decimal.Decimal
	UpperPrice       decimal.Decimal
	BaseTokenAmount  *decimal.Decimal
	QuoteTokenAmount *decimal.Decimal
	SlippagePct      decimal.Decimal
}

// OpenPositionResult is a settled open-position transaction.
type OpenPositionResult struct {
	Result outcome.Result
	Data   *OpenPositionData
}

type OpenPositionData struct {
	PositionAddress       string
	BaseTokenAmountAdded  decimal.Decimal
	QuoteTokenAmountAdded decimal.Decimal
	Fee                   decimal.Decimal
}

// LiquidityResult is a settled add or remove liquidity transaction.
type LiquidityResult struct {
	Result outcome.Result
	Data   *LiquidityData
}

type LiquidityData struct {
	BaseTokenAmount  decimal.Decimal
	QuoteTokenAmount decimal.Decimal
	Fee              decimal.Decimal
}

// CollectFeesResult is a settled fee collection.
type CollectFeesResult struct {
	Result outcome.Result
	Data   *CollectFeesData
}

type CollectFeesData struct {
	BaseFeeAmountCollected  decimal.Decimal
	QuoteFeeAmountCollected decimal.Decimal
	Fee                     decimal.Decimal
}

// ClosePositionResult is a settled close. Removed amounts and fees are the
// position's valuation just before the close was submitted.
type ClosePositionResult struct {
	Result outcome.Result
	Data   *ClosePositionData
}

type ClosePositionData struct {
	Fee                     decimal.Decimal
	PositionRentRefunded    decimal.Decimal
	BaseTokenAmountRemoved  decimal.Decimal
	QuoteTokenAmountRemoved decimal.Decimal
	BaseFeeAmountCollected  decimal.Decimal
	QuoteFeeAmountCollected decimal.Decimal
}

type liquidityPlan struct {
	liquidity   *big.Int
	amounts     clmmmath.Amounts
	baseLimited bool
}

// planLiquidity estimates liquidity from the supplied legs and the amounts
// it needs, rounded up since they bound a deposit.
func planLiquidity(pool *model.Pool, tickLower, tickUpper int32, base, quote *decimal.Decimal) (liquidityPlan, error) {
	if base == nil && quote == nil {
		return liquidityPlan{}, &AmountUnderflowError{Field: "baseTokenAmount or quoteTokenAmount", Amount: decimal.Zero}
	}
	var in clmmmath.Amounts
	if base != nil {
		raw, err := ScaleIn(*base, pool.CoinA.Decimals)
		if err != nil {
			return liquidityPlan{}, &AmountUnderflowError{Field: "baseTokenAmount", Amount: *base, Decimals: pool.CoinA.Decimals}
		}
		in.A = raw
	}
	if quote != nil {
		raw, err := ScaleIn(*quote, pool.CoinB.Decimals)
		if err != nil {
			return liquidityPlan{}, &AmountUnderflowError{Field: "quoteTokenAmount", Amount: *quote, Decimals: pool.CoinB.Decimals}
		}
		in.B = raw
	}

	liquidity, err := clmmmath.LiquidityFromAmounts(pool.CurrentSqrtPrice, tickLower, tickUpper, in)
	if err != nil {
		return liquidityPlan{}, &InvalidRangeError{Field: "ticks", Reason: err.Error()}
	}
	if liquidity.Sign() == 0 {
		return liquidityPlan{}, &InvalidRangeError{Field: "ticks", Reason: fmt.Sprintf("supplied amounts mint no liquidity in [%d, %d) at tick %d", tickLower, tickUpper, pool.CurrentTick)}
	}

	sqrtLower, _ := clmmmath.SqrtPriceFromTick(tickLower)
	sqrtUpper, _ := clmmmath.SqrtPriceFromTick(tickUpper)
	amounts, err := clmmmath.AmountsFromLiquidity(liquidity, pool.CurrentSqrtPrice, sqrtLower, sqrtUpper, true)
	if err != nil {
		return liquidityPlan{}, err
	}

	plan := liquidityPlan{liquidity: liquidity, amounts: amounts}
	switch {
	case in.B == nil:
		plan.baseLimited = true
	case in.A == nil:
		plan.baseLimited = false
	default:
		fromA, err := clmmmath.LiquidityFromAmounts(pool.CurrentSqrtPrice, tickLower, tickUpper, clmmmath.Amounts{A: in.A})
		if err != nil {
			return liquidityPlan{}, err
		}
		plan.baseLimited = fromA.Cmp(liquidity) == 0
	}
	return plan, nil
}

func (c *Connector) rangeTicks(pool *model.Pool, lowerPrice, upperPrice decimal.Decimal) (int32, int32, error) {
	if !lowerPrice.IsPositive() {
		return 0, 0, &InvalidRangeError{Field: "lowerPrice", Reason: "must be positive"}
	}
	if lowerPrice.GreaterThanOrEqual(upperPrice) {
		return 0, 0, &InvalidRangeError{Field: "lowerPrice", Reason: fmt.Sprintf("%s is not below upper price %s", lowerPrice, upperPrice)}
	}
	lower, err := clmmmath.TickFromPrice(lowerPrice, pool.CoinA.Decimals, pool.CoinB.Decimals, pool.TickSpacing)
	if err != nil {
		return 0, 0, &InvalidRangeError{Field: "lowerPrice", Reason: err.Error()}
	}
	upper, err := clmmmath.TickFromPrice(upperPrice, pool.CoinA.Decimals, pool.CoinB.Decimals, pool.TickSpacing)
	if err != nil {
		return 0, 0, &InvalidRangeError{Field: "upperPrice", Reason: err.Error()}
	}
	if lower >= upper {
		return 0, 0, &InvalidRangeError{Field: "upperPrice", Reason: fmt.Sprintf("prices collapse to tick %d at spacing %d", lower, pool.TickSpacing)}
	}
	return lower, upper, nil
}

func (c *Connector) QuotePosition(ctx context.Context, poolID string, lowerPrice, upperPrice decimal.Decimal, base, quote *decimal.Decimal) (PositionQuote, error) {
	pool, err := c.pool(ctx, poolID)
	if err != nil {
		return PositionQuote{}, err
	}
	lower, upper, err := c.rangeTicks(pool, lowerPrice, upperPrice)
	if err != nil {
		return PositionQuote{}, err
	}
	plan, err := planLiquidity(pool, lower, upper, base, quote)
	if err != nil {
		return PositionQuote{}, err
	}
	baseAmount := Unscale(plan.amounts.A, pool.CoinA.Decimals)
	quoteAmount := Unscale(plan.amounts.B, pool.CoinB.Decimals)
	return PositionQuote{
		LowerTick:           lower,
		UpperTick:           upper,
		BaseLimited:         plan.baseLimited,
		BaseTokenAmount:     baseAmount,
		QuoteTokenAmount:    quoteAmount,
		BaseTokenAmountMax:  baseAmount,
		QuoteTokenAmountMax: quoteAmount,
		Liquidity:           plan.liquidity,
	}, nil
}

func (c *Connector) OpenPosition(ctx context.Context, wallet string, req PositionRequest) (OpenPositionResult, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return OpenPositionResult{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	if err := ValidateSlippage(req.SlippagePct); err != nil {
		return OpenPositionResult{}, err
	}
	pool, err := c.pool(ctx, req.PoolID)
	if err != nil {
		return OpenPositionResult{}, err
	}
	lower, upper, err := c.rangeTicks(pool, req.LowerPrice, req.UpperPrice)
	if err != nil {
		return OpenPositionResult{}, err
	}
	plan, err := planLiquidity(pool, lower, upper, req.BaseTokenAmount, req.QuoteTokenAmount)
	if err != nil {
		return OpenPositionResult{}, err
	}

	resp, err := c.exec.OpenPosition(ctx, signer, OpenPositionParams{
		PoolID:     pool.ID,
		TickLower:  lower,
		TickUpper:  upper,
		Liquidity:  plan.liquidity,
		MaxAmountA: plan.amounts.A,
		MaxAmountB: plan.amounts.B,
		MinAmountA: minWithSlippage(plan.amounts.A, req.SlippagePct),
		MinAmountB: minWithSlippage(plan.amounts.B, req.SlippagePct),
	})
	if err != nil {
		return OpenPositionResult{}, fmt.Errorf("open position on pool %s [%d, %d): %w", pool.ID, lower, upper, err)
	}

	tc := txContext{operation: "open position", wallet: signer, pool: pool.ID}
	o, res, err := c.settler.settle(ctx, resp, tc)
	if err != nil {
		return OpenPositionResult{Result: res}, err
	}
	confirmed, ok := o.(outcome.Confirmed)
	if !ok {
		return OpenPositionResult{Result: res}, nil
	}

	opened, err := outcome.FindEvent(confirmed.Digest, confirmed.Events, outcome.EventPositionOpened)
	if err != nil {
		return OpenPositionResult{Result: res}, incomplete(res, err)
	}
	positionID, err := opened.Text("position_id")
	if err != nil {
		return OpenPositionResult{Result: res}, incomplete(res, err)
	}
	a, b, err := eventAmounts(confirmed, outcome.EventLiquidityProvided)
	if err != nil {
		return OpenPositionResult{Result: res}, incomplete(res, err)
	}
	return OpenPositionResult{Result: res, Data: &OpenPositionData{
		PositionAddress:       positionID,
		BaseTokenAmountAdded:  Unscale(a, pool.CoinA.Decimals),
		QuoteTokenAmountAdded: Unscale(b, pool.CoinB.Decimals),
		Fee:                   *res.Fee,
	}}, nil
}

func (c *Connector) AddLiquidity(ctx context.Context, wallet, positionID string, base, quote *decimal.Decimal, slippagePct decimal.Decimal) (LiquidityResult, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return LiquidityResult{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	if err := ValidateSlippage(slippagePct); err != nil {
		return LiquidityResult{}, err
	}
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return LiquidityResult{}, err
	}
	plan, err := planLiquidity(pool, position.TickLower, position.TickUpper, base, quote)
	if err != nil {
		return LiquidityResult{}, err
	}

	resp, err := c.exec.ProvideLiquidity(ctx, signer, LiquidityParams{
		PoolID:     pool.ID,
		PositionID: position.ID,
		Liquidity:  plan.liquidity,
		MaxAmountA: plan.amounts.A,
		MaxAmountB: plan.amounts.B,
		MinAmountA: minWithSlippage(plan.amounts.A, slippagePct),
		MinAmountB: minWithSlippage(plan.amounts.B, slippagePct),
	})
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("add liquidity to position %s (liquidity=%s): %w", position.ID, plan.liquidity, err)
	}
	return c.settleLiquidity(ctx, resp, pool, txContext{operation: "add liquidity", wallet: signer, pool: pool.ID, position: position.ID}, outcome.EventLiquidityProvided)
}

// RemoveLiquidity withdraws pct percent of the position's liquidity.
func (c *Connector) RemoveLiquidity(ctx context.Context, wallet, positionID string, pct, slippagePct decimal.Decimal) (LiquidityResult, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return LiquidityResult{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return LiquidityResult{}, &InvalidRangeError{Field: "percentageToRemove", Reason: pct.String() + " is outside (0, 100]"}
	}
	if err := ValidateSlippage(slippagePct); err != nil {
		return LiquidityResult{}, err
	}
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return LiquidityResult{}, err
	}

	liquidity := decimal.NewFromBigInt(position.Liquidity, 0).Mul(pct).Div(hundred).Floor().BigInt()
	if liquidity.Sign() == 0 {
		return LiquidityResult{}, &InvalidRangeError{Field: "percentageToRemove", Reason: fmt.Sprintf("position %s has no liquidity to remove", position.ID)}
	}
	sqrtLower, err := clmmmath.SqrtPriceFromTick(position.TickLower)
	if err != nil {
		return LiquidityResult{}, err
	}
	sqrtUpper, err := clmmmath.SqrtPriceFromTick(position.TickUpper)
	if err != nil {
		return LiquidityResult{}, err
	}
	expected, err := clmmmath.AmountsFromLiquidity(liquidity, pool.CurrentSqrtPrice, sqrtLower, sqrtUpper, false)
	if err != nil {
		return LiquidityResult{}, err
	}

	resp, err := c.exec.RemoveLiquidity(ctx, signer, LiquidityParams{
		PoolID:     pool.ID,
		PositionID: position.ID,
		Liquidity:  liquidity,
		MinAmountA: minWithSlippage(expected.A, slippagePct),
		MinAmountB: minWithSlippage(expected.B, slippagePct),
	})
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("remove liquidity from position %s (liquidity=%s): %w", position.ID, liquidity, err)
	}
	return c.settleLiquidity(ctx, resp, pool, txContext{operation: "remove liquidity", wallet: signer, pool: pool.ID, position: position.ID}, outcome.EventLiquidityRemoved)
}

func (c *Connector) settleLiquidity(ctx context.Context, resp *chain.TransactionBlockResponse, pool *model.Pool, tc txContext, event string) (LiquidityResult, error) {
	o, res, err := c.settler.settle(ctx, resp, tc)
	if err != nil {
		return LiquidityResult{Result: res}, err
	}
	confirmed, ok := o.(outcome.Confirmed)
	if !ok {
		return LiquidityResult{Result: res}, nil
	}
	a, b, err := eventAmounts(confirmed, event)
	if err != nil {
		return LiquidityResult{Result: res}, incomplete(res, err)
	}
	return LiquidityResult{Result: res, Data: &LiquidityData{
		BaseTokenAmount:  Unscale(a, pool.CoinA.Decimals),
		QuoteTokenAmount: Unscale(b, pool.CoinB.Decimals),
		Fee:              *res.Fee,
	}}, nil
}

func (c *Connector) CollectFees(ctx context.Context, wallet, positionID string) (CollectFeesResult, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return CollectFeesResult{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return CollectFeesResult{}, err
	}

	resp, err := c.exec.CollectFeesAndRewards(ctx, signer, pool.ID, position.ID)
	if err != nil {
		return CollectFeesResult{}, fmt.Errorf("collect fees of position %s: %w", position.ID, err)
	}
	o, res, err := c.settler.settle(ctx, resp, txContext{operation: "collect fees", wallet: signer, pool: pool.ID, position: position.ID})
	if err != nil {
		return CollectFeesResult{Result: res}, err
	}
	confirmed, ok := o.(outcome.Confirmed)
	if !ok {
		return CollectFeesResult{Result: res}, nil
	}
	a, b, err := eventAmounts(confirmed, outcome.EventUserFeeCollected)
	if err != nil {
		return CollectFeesResult{Result: res}, incomplete(res, err)
	}
	return CollectFeesResult{Result: res, Data: &CollectFeesData{
		BaseFeeAmountCollected:  Unscale(a, pool.CoinA.Decimals),
		QuoteFeeAmountCollected: Unscale(b, pool.CoinB.Decimals),
		Fee:                     *res.Fee,
	}}, nil
}

// ClosePosition removes all liquidity, collects fees and deletes the
// position object. The storage rebate is reported as rent refunded.
func (c *Connector) ClosePosition(ctx context.Context, wallet, positionID string) (ClosePositionResult, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return ClosePositionResult{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return ClosePositionResult{}, err
	}
	view, err := ToView(position, pool)
	if err != nil {
		return ClosePositionResult{}, err
	}
	accrued, err := c.exec.AccruedFeesAndRewards(ctx, pool.ID, position.ID)
	if err != nil {
		return ClosePositionResult{}, fmt.Errorf("accrued fees of position %s: %w", position.ID, err)
	}

	resp, err := c.exec.ClosePosition(ctx, signer, pool.ID, position.ID)
	if err != nil {
		return ClosePositionResult{}, fmt.Errorf("close position %s: %w", position.ID, err)
	}
	o, res, err := c.settler.settle(ctx, resp, txContext{operation: "close position", wallet: signer, pool: pool.ID, position: position.ID})
	if err != nil {
		return ClosePositionResult{Result: res}, err
	}
	confirmed, ok := o.(outcome.Confirmed)
	if !ok {
		return ClosePositionResult{Result: res}, nil
	}
	if _, err := outcome.FindEvent(confirmed.Digest, confirmed.Events, outcome.EventPositionClosed); err != nil {
		return ClosePositionResult{Result: res}, incomplete(res, err)
	}
	rebate, err := outcome.StorageRebate(confirmed.Effects.GasUsed)
	if err != nil {
		return ClosePositionResult{Result: res}, incomplete(res, err)
	}
	return ClosePositionResult{Result: res, Data: &ClosePositionData{
		Fee:                     *res.Fee,
		PositionRentRefunded:    rebate,
		BaseTokenAmountRemoved:  view.BaseTokenAmount,
		QuoteTokenAmountRemoved: view.QuoteTokenAmount,
		BaseFeeAmountCollected:  Unscale(accrued.FeeA, pool.CoinA.Decimals),
		QuoteFeeAmountCollected: Unscale(accrued.FeeB, pool.CoinB.Decimals),
	}}, nil
}

// AccruedFeesAndRewards lists uncollected fees and rewards of a position
// merged by coin type.
func (c *Connector) AccruedFeesAndRewards(ctx context.Context, positionID string) ([]TokenAmount, error) {
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return nil, err
	}
	accrued, err := c.exec.AccruedFeesAndRewards(ctx, pool.ID, position.ID)
	if err != nil {
		return nil, fmt.Errorf("accrued fees of position %s: %w", position.ID, err)
	}
	return MergeFeesAndRewards(pool, accrued, c.tokens)
}

func eventAmounts(confirmed outcome.Confirmed, suffix string) (*big.Int, *big.Int, error) {
	ev, err := outcome.FindEvent(confirmed.Digest, confirmed.Events, suffix)
	if err != nil {
		return nil, nil, err
	}
	a, err := ev.BigInt("coin_a_amount")
	if err != nil {
		return nil, nil, err
	}
	b, err := ev.BigInt("coin_b_amount")
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
