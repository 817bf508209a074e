package clmm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmmmath"
	"clmmGateway/internal/model"
)

// PositionView is a position valued at the pool's current price.
// Base is the pool's coinA and quote its coinB.
type PositionView struct {
	Address           string
	PoolAddress       string
	BaseTokenAddress  string
	QuoteTokenAddress string
	BaseTokenAmount   decimal.Decimal
	QuoteTokenAmount  decimal.Decimal
	BaseFeeAmount     decimal.Decimal
	QuoteFeeAmount    decimal.Decimal
	LowerTick         int32
	UpperTick         int32
	LowerPrice        decimal.Decimal
	UpperPrice        decimal.Decimal
	Price             decimal.Decimal
	Liquidity         *big.Int
}

// ToView values position against pool. Amounts round down since they
// estimate what a withdrawal would return.
func ToView(position *model.Position, pool *model.Pool) (PositionView, error) {
	if position.PoolID != "" && position.PoolID != pool.ID {
		return PositionView{}, fmt.Errorf("position %s belongs to pool %s, not %s", position.ID, position.PoolID, pool.ID)
	}
	decA, decB := pool.CoinA.Decimals, pool.CoinB.Decimals

	sqrtLower, err := clmmmath.SqrtPriceFromTick(position.TickLower)
	if err != nil {
		return PositionView{}, fmt.Errorf("position %s lower tick: %w", position.ID, err)
	}
	sqrtUpper, err := clmmmath.SqrtPriceFromTick(position.TickUpper)
	if err != nil {
		return PositionView{}, fmt.Errorf("position %s upper tick: %w", position.ID, err)
	}
	amounts, err := clmmmath.AmountsFromLiquidity(position.Liquidity, pool.CurrentSqrtPrice, sqrtLower, sqrtUpper, false)
	if err != nil {
		return PositionView{}, fmt.Errorf("position %s: %w", position.ID, err)
	}

	return PositionView{
		Address:           position.ID,
		PoolAddress:       pool.ID,
		BaseTokenAddress:  pool.CoinA.Address,
		QuoteTokenAddress: pool.CoinB.Address,
		BaseTokenAmount:   Unscale(amounts.A, decA),
		QuoteTokenAmount:  Unscale(amounts.B, decB),
		BaseFeeAmount:     Unscale(position.AccruedFeeA, decA),
		QuoteFeeAmount:    Unscale(position.AccruedFeeB, decB),
		LowerTick:         position.TickLower,
		UpperTick:         position.TickUpper,
		LowerPrice:        clmmmath.PriceFromSqrtPrice(sqrtLower, decA, decB),
		UpperPrice:        clmmmath.PriceFromSqrtPrice(sqrtUpper, decA, decB),
		Price:             clmmmath.PriceFromSqrtPrice(pool.CurrentSqrtPrice, decA, decB),
		Liquidity:         position.Liquidity,
	}, nil
}

// TokenAmount is a human amount of one coin type.
type TokenAmount struct {
	Address string
	Symbol  string
	Amount  decimal.Decimal
}

// MergeFeesAndRewards folds fees and rewards into one list keyed by
// normalized coin type. A reward paid in a fee coin is added to that fee.
// Order is fee A, fee B, then rewards by first appearance.
func MergeFeesAndRewards(pool *model.Pool, accrued AccruedFees, lookup TokenLookup) ([]TokenAmount, error) {
	var merged []TokenAmount
	index := make(map[string]int)

	add := func(coinType, symbol string, amount decimal.Decimal) error {
		key, err := chain.NormalizeCoinType(coinType)
		if err != nil {
			return fmt.Errorf("reward coin %q: %w", coinType, err)
		}
		if i, ok := index[key]; ok {
			merged[i].Amount = merged[i].Amount.Add(amount)
			if merged[i].Symbol == "" {
				merged[i].Symbol = symbol
			}
			return nil
		}
		index[key] = len(merged)
		merged = append(merged, TokenAmount{Address: key, Symbol: symbol, Amount: amount})
		return nil
	}

	if err := add(pool.CoinA.Address, symbolOf(pool.CoinA.Address, lookup), Unscale(accrued.FeeA, pool.CoinA.Decimals)); err != nil {
		return nil, err
	}
	if err := add(pool.CoinB.Address, symbolOf(pool.CoinB.Address, lookup), Unscale(accrued.FeeB, pool.CoinB.Decimals)); err != nil {
		return nil, err
	}
	for _, r := range accrued.Rewards {
		if err := add(r.CoinType, r.Symbol, Unscale(r.Amount, r.Decimals)); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func symbolOf(coinType string, lookup TokenLookup) string {
	if lookup != nil {
		if tok, ok := lookup.Get(coinType); ok && tok.Symbol != "" {
			return tok.Symbol
		}
	}
	return chain.CoinStructName(coinType)
}
