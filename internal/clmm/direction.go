package clmm

import (
	"fmt"
	"strings"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/model"
)

// Side is the caller's trade side relative to the base token.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts BUY or SELL in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", &InvalidRangeError{Field: "side", Reason: fmt.Sprintf("%q is not BUY or SELL", s)}
}

// Direction is a trade resolved against the pool's coin ordering.
type Direction struct {
	Side           Side
	AToB           bool
	TokenIn        model.Coin
	TokenOut       model.Coin
	InputDecimals  uint8
	OutputDecimals uint8
	// MatchedBySymbol is set when a token was matched by its coin struct
	// name rather than by address.
	MatchedBySymbol bool
}

// ResolveDirection maps (base, quote, side) onto the pool's (coinA, coinB)
// pair. Tokens are compared by normalized coin type; identifiers that are
// neither coin types nor token-list symbols fall back to matching the coin
// struct name.
func ResolveDirection(pool *model.Pool, base, quote string, side Side, lookup TokenLookup) (Direction, error) {
	inID, outID := base, quote
	if side == SideBuy {
		inID, outID = quote, base
	}

	in, inBySymbol, err := resolveCoin(pool, inID, lookup)
	if err != nil {
		return Direction{}, &InvalidPairError{PoolID: pool.ID, TokenIn: inID, TokenOut: outID, Reason: err.Error()}
	}
	out, outBySymbol, err := resolveCoin(pool, outID, lookup)
	if err != nil {
		return Direction{}, &InvalidPairError{PoolID: pool.ID, TokenIn: inID, TokenOut: outID, Reason: err.Error()}
	}

	d := Direction{Side: side, MatchedBySymbol: inBySymbol || outBySymbol}
	switch {
	case in == pool.CoinA.Address && out == pool.CoinB.Address:
		d.AToB = true
		d.TokenIn, d.TokenOut = pool.CoinA, pool.CoinB
	case in == pool.CoinB.Address && out == pool.CoinA.Address:
		d.AToB = false
		d.TokenIn, d.TokenOut = pool.CoinB, pool.CoinA
	default:
		return Direction{}, &InvalidPairError{PoolID: pool.ID, TokenIn: inID, TokenOut: outID}
	}
	d.InputDecimals = d.TokenIn.Decimals
	d.OutputDecimals = d.TokenOut.Decimals
	return d, nil
}

func resolveCoin(pool *model.Pool, id string, lookup TokenLookup) (string, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false, fmt.Errorf("empty token")
	}
	if chain.IsCoinType(id) {
		coinType, err := chain.NormalizeCoinType(id)
		return coinType, false, err
	}
	if lookup != nil {
		if tok, ok := lookup.Get(id); ok {
			coinType, err := chain.NormalizeCoinType(tok.Address)
			return coinType, false, err
		}
	}

	matchA := strings.EqualFold(chain.CoinStructName(pool.CoinA.Address), id)
	matchB := strings.EqualFold(chain.CoinStructName(pool.CoinB.Address), id)
	switch {
	case matchA && matchB:
		return "", false, fmt.Errorf("symbol %s matches both pool coins", id)
	case matchA:
		return pool.CoinA.Address, true, nil
	case matchB:
		return pool.CoinB.Address, true, nil
	}
	return "", false, fmt.Errorf("unknown token %s", id)
}
