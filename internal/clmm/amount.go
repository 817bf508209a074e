package clmm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ScaleIn converts a human amount into raw on-chain units,
// raw = round(amount * 10^decimals). A positive amount smaller than half a
// raw unit scales to one unit, never to zero.
func ScaleIn(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, &AmountUnderflowError{Amount: amount, Decimals: decimals}
	}
	raw := amount.Shift(int32(decimals)).Round(0)
	if !raw.IsPositive() {
		return big.NewInt(1), nil
	}
	return raw.BigInt(), nil
}

// Unscale converts raw on-chain units into a human amount.
func Unscale(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ValidateSlippage accepts percentages in [0, 100).
func ValidateSlippage(slippagePct decimal.Decimal) error {
	if slippagePct.IsNegative() || slippagePct.GreaterThanOrEqual(hundred) {
		return &InvalidRangeError{Field: "slippagePct", Reason: slippagePct.String() + " is outside [0, 100)"}
	}
	return nil
}

// minWithSlippage returns floor(raw * (1 - slippagePct/100)).
func minWithSlippage(raw *big.Int, slippagePct decimal.Decimal) *big.Int {
	factor := decimal.NewFromInt(1).Sub(slippagePct.Shift(-2))
	return decimal.NewFromBigInt(raw, 0).Mul(factor).Floor().BigInt()
}

// maxWithSlippage returns ceil(raw * (1 + slippagePct/100)).
func maxWithSlippage(raw *big.Int, slippagePct decimal.Decimal) *big.Int {
	factor := decimal.NewFromInt(1).Add(slippagePct.Shift(-2))
	return decimal.NewFromBigInt(raw, 0).Mul(factor).Ceil().BigInt()
}
