package model

import "math/big"

// Position is a liquidity position owned by a wallet.
type Position struct {
	ID          string   `json:"id"`
	PoolID      string   `json:"pool_id"`
	CoinTypeA   string   `json:"coin_type_a"`
	CoinTypeB   string   `json:"coin_type_b"`
	TickLower   int32    `json:"tick_lower"`
	TickUpper   int32    `json:"tick_upper"`
	Liquidity   *big.Int `json:"liquidity"`
	AccruedFeeA *big.Int `json:"accrued_fee_a"`
	AccruedFeeB *big.Int `json:"accrued_fee_b"`
}
