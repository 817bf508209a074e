package clmm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleIn(t *testing.T) {
	raw, err := ScaleIn(decimal.NewFromInt(20), 9)
	require.NoError(t, err)
	assert.Equal(t, "20000000000", raw.String())

	raw, err = ScaleIn(decimal.RequireFromString("8.4428315"), 6)
	require.NoError(t, err)
	assert.Equal(t, "8442832", raw.String())

	raw, err = ScaleIn(decimal.RequireFromString("0.0000004"), 6)
	require.NoError(t, err)
	assert.Equal(t, "1", raw.String())

	for _, bad := range []string{"0", "-1", "-0.0000004"} {
		_, err := ScaleIn(decimal.RequireFromString(bad), 6)
		var underflow *AmountUnderflowError
		assert.ErrorAs(t, err, &underflow, bad)
	}
}

func TestScaleRoundTrip(t *testing.T) {
	amounts := []string{"1", "0.5", "20", "123456.789012345678", "0.000000000000000001", "0.0000000000000000004", "42.4242"}
	for dec := uint8(0); dec <= 18; dec++ {
		unit := decimal.New(1, -int32(dec))
		for _, a := range amounts {
			amount := decimal.RequireFromString(a)
			raw, err := ScaleIn(amount, dec)
			require.NoError(t, err, "%s at %d", a, dec)
			require.Positive(t, raw.Sign(), "%s at %d", a, dec)
			back := Unscale(raw, dec)
			assert.True(t, back.Sub(amount).Abs().LessThanOrEqual(unit), "%s at %d decimals came back as %s", a, dec, back)
		}
	}
}

func TestUnscaleNil(t *testing.T) {
	assert.True(t, Unscale(nil, 6).IsZero())
	requireDecimal(t, "8.442831", Unscale(big.NewInt(8442831), 6))
}

func TestSlippageBounds(t *testing.T) {
	half := decimal.RequireFromString("0.5")
	assert.Equal(t, "8400616", minWithSlippage(big.NewInt(8442831), half).String())
	assert.Equal(t, "4221000", maxWithSlippage(big.NewInt(4200000), half).String())
	assert.Equal(t, "1007", maxWithSlippage(big.NewInt(1001), half).String())
	assert.Equal(t, "8442831", minWithSlippage(big.NewInt(8442831), decimal.Zero).String())

	assert.NoError(t, ValidateSlippage(decimal.Zero))
	assert.Error(t, ValidateSlippage(decimal.NewFromInt(-1)))
	assert.Error(t, ValidateSlippage(decimal.NewFromInt(100)))
}
