package clmm

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidPairError means the requested tokens do not form the pool's pair.
type InvalidPairError struct {
	PoolID   string
	TokenIn  string
	TokenOut string
	Reason   string
}

func (e *InvalidPairError) Error() string {
	msg := fmt.Sprintf("invalid token pair %s/%s for pool %s", e.TokenIn, e.TokenOut, e.PoolID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// AmountUnderflowError means a required amount is zero, negative, or
// smaller than one raw unit.
type AmountUnderflowError struct {
	Field    string
	Amount   decimal.Decimal
	Decimals uint8
}

func (e *AmountUnderflowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("amount %s must be positive at %d decimals", e.Amount.String(), e.Decimals)
	}
	return fmt.Sprintf("%s %s must be positive at %d decimals", e.Field, e.Amount.String(), e.Decimals)
}

// InvalidRangeError reports malformed numeric or tick-range input.
type InvalidRangeError struct {
	Field  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuoteUnavailableError means the simulator produced no usable swap result.
type QuoteUnavailableError struct {
	PoolID string
	Reason string
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("quote unavailable for pool %s: %s", e.PoolID, e.Reason)
}
