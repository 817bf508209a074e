package model

import "math/big"

// Coin is one leg of a pool. Address is the normalized coin type.
type Coin struct {
	Address  string   `json:"address"`
	Decimals uint8    `json:"decimals"`
	Balance  *big.Int `json:"balance"`
}

// Pool is a CLMM pool snapshot read from chain.
type Pool struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	CoinA             Coin     `json:"coin_a"`
	CoinB             Coin     `json:"coin_b"`
	CurrentSqrtPrice  *big.Int `json:"current_sqrt_price"`
	CurrentTick       int32    `json:"current_tick"`
	FeeRateMillionths uint64   `json:"fee_rate"`
	TickSpacing       int32    `json:"tick_spacing"`
	Liquidity         *big.Int `json:"liquidity"`
}
