package clmmmath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const pricePrecision = 40

var q128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 2*Q64Shift), 0)

// PriceFromSqrtPrice converts a Q64.64 sqrt price into a coinB-per-coinA
// price adjusted for leg decimals.
func PriceFromSqrtPrice(sqrtPrice *big.Int, decimalsA, decimalsB uint8) decimal.Decimal {
	if sqrtPrice == nil {
		return decimal.Zero
	}
	squared := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPrice, sqrtPrice), 0)
	return squared.Shift(int32(decimalsA)-int32(decimalsB)).DivRound(q128, pricePrecision)
}

// TickToPrice converts a tick index into a decimals-adjusted price.
func TickToPrice(tick int32, decimalsA, decimalsB uint8) (decimal.Decimal, error) {
	sqrtPrice, err := SqrtPriceFromTick(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return PriceFromSqrtPrice(sqrtPrice, decimalsA, decimalsB), nil
}

// SqrtPriceFromPrice converts a decimals-adjusted price into Q64.64.
func SqrtPriceFromPrice(price decimal.Decimal, decimalsA, decimalsB uint8) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price.String())
	}

	raw := price.Shift(int32(decimalsB) - int32(decimalsA))
	rawFloat, _, err := big.ParseFloat(raw.String(), 10, floatPrec, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("parse price %s: %w", raw.String(), err)
	}

	sqrt := new(big.Float).SetPrec(floatPrec).Sqrt(rawFloat)
	sqrt.Mul(sqrt, new(big.Float).SetPrec(floatPrec).SetInt(Q64One))
	out, _ := sqrt.Int(nil)
	return out, nil
}

// TickFromPrice returns the initializable tick at or toward zero from price.
func TickFromPrice(price decimal.Decimal, decimalsA, decimalsB uint8, tickSpacing int32) (int32, error) {
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTickSpacing, tickSpacing)
	}
	sqrtPrice, err := SqrtPriceFromPrice(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	tick, err := TickFromSqrtPrice(sqrtPrice)
	if err != nil {
		return 0, err
	}
	return InitializableTick(tick, tickSpacing), nil
}
