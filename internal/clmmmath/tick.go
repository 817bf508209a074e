package clmmmath

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
)

// Q64.64 fixed point, as used for pool sqrt prices.
const (
	Q64Shift = 64

	MinTick int32 = -443636
	MaxTick int32 = 443636

	floatPrec = 256
)

var (
	Q64One = new(big.Int).Lsh(big.NewInt(1), Q64Shift)

	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidTickSpacing  = errors.New("tick spacing must be positive")
	ErrInvalidTickRange    = errors.New("lower tick must be below upper tick")

	sqrtBaseOnce sync.Once
	sqrtBase     *big.Float
)

func sqrtTickBase() *big.Float {
	sqrtBaseOnce.Do(func() {
		base, _, _ := big.ParseFloat("1.0001", 10, floatPrec, big.ToNearestEven)
		sqrtBase = new(big.Float).SetPrec(floatPrec).Sqrt(base)
	})
	return sqrtBase
}

// SqrtPriceFromTick returns floor(1.0001^(tick/2) * 2^64).
func SqrtPriceFromTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}

	exp := tick
	if exp < 0 {
		exp = -exp
	}
	ratio := powFloat(sqrtTickBase(), uint32(exp))
	if tick < 0 {
		ratio = new(big.Float).SetPrec(floatPrec).Quo(big.NewFloat(1).SetPrec(floatPrec), ratio)
	}
	ratio.Mul(ratio, new(big.Float).SetPrec(floatPrec).SetInt(Q64One))

	out, _ := ratio.Int(nil)
	return out, nil
}

// TickFromSqrtPrice returns the greatest tick whose sqrt price is <= sqrtPrice.
func TickFromSqrtPrice(sqrtPrice *big.Int) (int32, error) {
	if sqrtPrice == nil || sqrtPrice.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrSqrtPriceOutOfRange, sqrtPrice)
	}
	minSqrt, _ := SqrtPriceFromTick(MinTick)
	maxSqrt, _ := SqrtPriceFromTick(MaxTick)
	if sqrtPrice.Cmp(minSqrt) < 0 || sqrtPrice.Cmp(maxSqrt) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrSqrtPriceOutOfRange, sqrtPrice.String())
	}

	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPrice), new(big.Float).SetInt(Q64One)).Float64()
	estimate := math.Floor(2 * math.Log(ratio) / math.Log(1.0001))
	tick := int32(math.Max(float64(MinTick), math.Min(float64(MaxTick), estimate)))

	// float64 log can be off by one near tick boundaries
	for tick < MaxTick {
		next, _ := SqrtPriceFromTick(tick + 1)
		if next.Cmp(sqrtPrice) > 0 {
			break
		}
		tick++
	}
	for tick > MinTick {
		cur, _ := SqrtPriceFromTick(tick)
		if cur.Cmp(sqrtPrice) <= 0 {
			break
		}
		tick--
	}
	return tick, nil
}

// InitializableTick truncates tick toward zero onto the spacing grid.
func InitializableTick(tick, tickSpacing int32) int32 {
	return tick - tick%tickSpacing
}

func powFloat(base *big.Float, exp uint32) *big.Float {
	result := new(big.Float).SetPrec(floatPrec).SetInt64(1)
	b := new(big.Float).SetPrec(floatPrec).Set(base)
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(result, b)
		}
		b.Mul(b, b)
		exp >>= 1
	}
	return result
}
