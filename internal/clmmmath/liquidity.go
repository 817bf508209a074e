package clmmmath

import (
	"fmt"
	"math/big"
)

// Amounts holds raw coin amounts for both legs. Nil means zero.
type Amounts struct {
	A *big.Int
	B *big.Int
}

// LiquidityFromAmounts estimates the liquidity that the given amounts can
// mint over [tickLower, tickUpper) at the current sqrt price. When only one
// leg is supplied inside the range, that leg alone limits the result.
func LiquidityFromAmounts(sqrtPrice *big.Int, tickLower, tickUpper int32, amounts Amounts) (*big.Int, error) {
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, tickLower, tickUpper)
	}
	sqrtLower, err := SqrtPriceFromTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := SqrtPriceFromTick(tickUpper)
	if err != nil {
		return nil, err
	}

	amountA := orZero(amounts.A)
	amountB := orZero(amounts.B)

	switch {
	case sqrtPrice.Cmp(sqrtLower) < 0:
		return liquidityFromA(sqrtLower, sqrtUpper, amountA), nil
	case sqrtPrice.Cmp(sqrtUpper) >= 0:
		return liquidityFromB(sqrtLower, sqrtUpper, amountB), nil
	}

	fromA := liquidityFromA(sqrtPrice, sqrtUpper, amountA)
	fromB := liquidityFromB(sqrtLower, sqrtPrice, amountB)
	switch {
	case amountA.Sign() == 0:
		return fromB, nil
	case amountB.Sign() == 0:
		return fromA, nil
	case fromA.Cmp(fromB) < 0:
		return fromA, nil
	default:
		return fromB, nil
	}
}

// AmountsFromLiquidity returns the coin amounts represented by liquidity
// between the two sqrt price bounds at the current sqrt price.
func AmountsFromLiquidity(liquidity, sqrtPrice, sqrtLower, sqrtUpper *big.Int, roundUp bool) (Amounts, error) {
	if sqrtLower.Cmp(sqrtUpper) >= 0 {
		return Amounts{}, fmt.Errorf("%w: sqrt bounds %s >= %s", ErrInvalidTickRange, sqrtLower.String(), sqrtUpper.String())
	}
	liquidity = orZero(liquidity)

	switch {
	case sqrtPrice.Cmp(sqrtLower) < 0:
		return Amounts{A: amountA(liquidity, sqrtLower, sqrtUpper, roundUp), B: new(big.Int)}, nil
	case sqrtPrice.Cmp(sqrtUpper) >= 0:
		return Amounts{A: new(big.Int), B: amountB(liquidity, sqrtLower, sqrtUpper, roundUp)}, nil
	default:
		return Amounts{
			A: amountA(liquidity, sqrtPrice, sqrtUpper, roundUp),
			B: amountB(liquidity, sqrtLower, sqrtPrice, roundUp),
		}, nil
	}
}

// L = amountA * lower * upper / ((upper - lower) << 64)
func liquidityFromA(lower, upper, amount *big.Int) *big.Int {
	num := new(big.Int).Mul(amount, lower)
	num.Mul(num, upper)
	den := new(big.Int).Sub(upper, lower)
	den.Lsh(den, Q64Shift)
	return num.Quo(num, den)
}

// L = (amountB << 64) / (upper - lower)
func liquidityFromB(lower, upper, amount *big.Int) *big.Int {
	num := new(big.Int).Lsh(amount, Q64Shift)
	return num.Quo(num, new(big.Int).Sub(upper, lower))
}

func amountA(liquidity, lower, upper *big.Int, roundUp bool) *big.Int {
	num := new(big.Int).Sub(upper, lower)
	num.Mul(num, liquidity)
	num.Lsh(num, Q64Shift)
	den := new(big.Int).Mul(lower, upper)
	return divRound(num, den, roundUp)
}

func amountB(liquidity, lower, upper *big.Int, roundUp bool) *big.Int {
	num := new(big.Int).Sub(upper, lower)
	num.Mul(num, liquidity)
	return divRound(num, Q64One, roundUp)
}

func divRound(num, den *big.Int, roundUp bool) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if roundUp && r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
