package clmm

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/model"
	"clmmGateway/internal/tokens"
)

// ChainReader is the chain query capability the connector consumes.
type ChainReader interface {
	GetPool(ctx context.Context, poolID string) (*model.Pool, error)
	GetPosition(ctx context.Context, positionID string) (*model.Position, error)
	GetUserPositions(ctx context.Context, packageID, owner string) ([]model.Position, error)
	GetTransactionBlock(ctx context.Context, digest string) (*chain.TransactionBlockResponse, error)
}

// SwapParams is one simulator or executor swap call. Unused amounts are zero.
type SwapParams struct {
	PoolID      string
	AmountIn    *big.Int
	AmountOut   *big.Int
	AToB        bool
	ByAmountIn  bool
	SlippagePct decimal.Decimal
}

// OpenPositionParams opens a position and provides liquidity in one call.
type OpenPositionParams struct {
	PoolID     string
	TickLower  int32
	TickUpper  int32
	Liquidity  *big.Int
	MaxAmountA *big.Int
	MaxAmountB *big.Int
	MinAmountA *big.Int
	MinAmountB *big.Int
}

// LiquidityParams adds or removes liquidity on an existing position.
// Max amounts bound deposits; min amounts bound withdrawals.
type LiquidityParams struct {
	PoolID     string
	PositionID string
	Liquidity  *big.Int
	MaxAmountA *big.Int
	MaxAmountB *big.Int
	MinAmountA *big.Int
	MinAmountB *big.Int
}

// Reward is an accrued reward balance for one reward coin.
type Reward struct {
	CoinType string
	Symbol   string
	Decimals uint8
	Amount   *big.Int
}

// AccruedFees are the raw uncollected fees and rewards of a position.
type AccruedFees struct {
	FeeA    *big.Int
	FeeB    *big.Int
	Rewards []Reward
}

// Simulator dry-runs swaps.
type Simulator interface {
	ComputeSwapResults(ctx context.Context, p SwapParams) (*chain.TransactionBlockResponse, error)
}

// Executor submits signed transactions on behalf of signer.
type Executor interface {
	Simulator
	SwapAssets(ctx context.Context, signer string, p SwapParams) (*chain.TransactionBlockResponse, error)
	OpenPosition(ctx context.Context, signer string, p OpenPositionParams) (*chain.TransactionBlockResponse, error)
	ProvideLiquidity(ctx context.Context, signer string, p LiquidityParams) (*chain.TransactionBlockResponse, error)
	RemoveLiquidity(ctx context.Context, signer string, p LiquidityParams) (*chain.TransactionBlockResponse, error)
	CollectFeesAndRewards(ctx context.Context, signer, poolID, positionID string) (*chain.TransactionBlockResponse, error)
	ClosePosition(ctx context.Context, signer, poolID, positionID string) (*chain.TransactionBlockResponse, error)
	AccruedFeesAndRewards(ctx context.Context, poolID, positionID string) (AccruedFees, error)
}

// TokenLookup resolves symbols or coin types from a token list.
type TokenLookup interface {
	Get(symbolOrAddress string) (tokens.Token, bool)
}

// Journal records settled transactions.
type Journal interface {
	PutTxBatch(ctx context.Context, records []model.TxRecord) error
}
