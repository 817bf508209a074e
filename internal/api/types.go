package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// HealthResponse represents the shape of /healthz responses.
type HealthResponse struct {
	Status   string   `json:"status"`
	Uptime   string   `json:"uptime"`
	Networks []string `json:"networks"`
}

// ErrorResponse is a generic API error payload. Signature is set when a
// submitted transaction failed on chain.
type ErrorResponse struct {
	Error     string `json:"error"`
	Signature string `json:"signature,omitempty"`
}

type PollRequest struct {
	Network   string `json:"network"`
	Signature string `json:"signature"`
}

type PollResponse struct {
	CurrentBlock uint64          `json:"currentBlock"`
	Signature    string          `json:"signature"`
	TxBlock      *uint64         `json:"txBlock"`
	TxStatus     int             `json:"txStatus"`
	Fee          *float64        `json:"fee"`
	TxData       json.RawMessage `json:"txData"`
	Error        string          `json:"error,omitempty"`
}

type EstimateGasResponse struct {
	FeePerComputeUnit uint64  `json:"feePerComputeUnit"`
	Denomination      string  `json:"denomination"`
	ComputeUnits      uint64  `json:"computeUnits"`
	FeeAsset          string  `json:"feeAsset"`
	Fee               float64 `json:"fee"`
	Timestamp         int64   `json:"timestamp"`
}

type BalancesRequest struct {
	Network  string   `json:"network"`
	Address  string   `json:"address"`
	Tokens   []string `json:"tokens"`
	FetchAll bool     `json:"fetchAll"`
}

type BalancesResponse struct {
	Balances map[string]float64 `json:"balances"`
}

type PoolInfoResponse struct {
	Address           string  `json:"address"`
	BaseTokenAddress  string  `json:"baseTokenAddress"`
	QuoteTokenAddress string  `json:"quoteTokenAddress"`
	BinStep           int32   `json:"binStep"`
	FeePct            float64 `json:"feePct"`
	Price             float64 `json:"price"`
	BaseTokenAmount   float64 `json:"baseTokenAmount"`
	QuoteTokenAmount  float64 `json:"quoteTokenAmount"`
	ActiveBinID       int32   `json:"activeBinId"`
}

type PositionInfoResponse struct {
	Address           string  `json:"address"`
	PoolAddress       string  `json:"poolAddress"`
	BaseTokenAddress  string  `json:"baseTokenAddress"`
	QuoteTokenAddress string  `json:"quoteTokenAddress"`
	BaseTokenAmount   float64 `json:"baseTokenAmount"`
	QuoteTokenAmount  float64 `json:"quoteTokenAmount"`
	BaseFeeAmount     float64 `json:"baseFeeAmount"`
	QuoteFeeAmount    float64 `json:"quoteFeeAmount"`
	LowerBinID        int32   `json:"lowerBinId"`
	UpperBinID        int32   `json:"upperBinId"`
	LowerPrice        float64 `json:"lowerPrice"`
	UpperPrice        float64 `json:"upperPrice"`
	Price             float64 `json:"price"`
	Liquidity         string  `json:"liquidity"`
}

type QuoteSwapResponse struct {
	PoolAddress    string  `json:"poolAddress"`
	TokenIn        string  `json:"tokenIn"`
	TokenOut       string  `json:"tokenOut"`
	AmountIn       float64 `json:"amountIn"`
	AmountOut      float64 `json:"amountOut"`
	Price          float64 `json:"price"`
	SlippagePct    float64 `json:"slippagePct"`
	MinAmountOut   float64 `json:"minAmountOut"`
	MaxAmountIn    float64 `json:"maxAmountIn"`
	PriceImpactPct float64 `json:"priceImpactPct"`
}

// Amounts in request bodies accept JSON numbers or numeric strings.

type ExecuteSwapRequest struct {
	Network       string           `json:"network"`
	WalletAddress string           `json:"walletAddress"`
	PoolAddress   string           `json:"poolAddress"`
	BaseToken     string           `json:"baseToken"`
	QuoteToken    string           `json:"quoteToken"`
	Amount        decimal.Decimal  `json:"amount"`
	Side          string           `json:"side"`
	SlippagePct   *decimal.Decimal `json:"slippagePct"`
}

type OpenPositionRequest struct {
	Network          string           `json:"network"`
	WalletAddress    string           `json:"walletAddress"`
	PoolAddress      string           `json:"poolAddress"`
	LowerPrice       decimal.Decimal  `json:"lowerPrice"`
	UpperPrice       decimal.Decimal  `json:"upperPrice"`
	BaseTokenAmount  *decimal.Decimal `json:"baseTokenAmount"`
	QuoteTokenAmount *decimal.Decimal `json:"quoteTokenAmount"`
	SlippagePct      *decimal.Decimal `json:"slippagePct"`
}

type AddLiquidityRequest struct {
	Network          string           `json:"network"`
	WalletAddress    string           `json:"walletAddress"`
	PositionAddress  string           `json:"positionAddress"`
	BaseTokenAmount  *decimal.Decimal `json:"baseTokenAmount"`
	QuoteTokenAmount *decimal.Decimal `json:"quoteTokenAmount"`
	SlippagePct      *decimal.Decimal `json:"slippagePct"`
}

type RemoveLiquidityRequest struct {
	Network            string           `json:"network"`
	WalletAddress      string           `json:"walletAddress"`
	PositionAddress    string           `json:"positionAddress"`
	PercentageToRemove decimal.Decimal  `json:"percentageToRemove"`
	SlippagePct        *decimal.Decimal `json:"slippagePct"`
}

// PositionRequest is the body of collect-fees and close-position.
type PositionRequest struct {
	Network         string `json:"network"`
	WalletAddress   string `json:"walletAddress"`
	PositionAddress string `json:"positionAddress"`
}

// TxResponse is the common envelope of execute-style routes. Data is only
// present for confirmed transactions.
type TxResponse struct {
	Signature string   `json:"signature"`
	Status    int      `json:"status"`
	Fee       *float64 `json:"fee,omitempty"`
	Data      any      `json:"data,omitempty"`
}

type ExecuteSwapData struct {
	TokenIn                 string  `json:"tokenIn"`
	TokenOut                string  `json:"tokenOut"`
	AmountIn                float64 `json:"amountIn"`
	AmountOut               float64 `json:"amountOut"`
	Fee                     float64 `json:"fee"`
	BaseTokenBalanceChange  float64 `json:"baseTokenBalanceChange"`
	QuoteTokenBalanceChange float64 `json:"quoteTokenBalanceChange"`
}

type QuotePositionResponse struct {
	BaseLimited         bool    `json:"baseLimited"`
	BaseTokenAmount     float64 `json:"baseTokenAmount"`
	QuoteTokenAmount    float64 `json:"quoteTokenAmount"`
	BaseTokenAmountMax  float64 `json:"baseTokenAmountMax"`
	QuoteTokenAmountMax float64 `json:"quoteTokenAmountMax"`
	Liquidity           string  `json:"liquidity"`
	LowerBinID          int32   `json:"lowerBinId"`
	UpperBinID          int32   `json:"upperBinId"`
}

type OpenPositionData struct {
	Fee                   float64 `json:"fee"`
	PositionAddress       string  `json:"positionAddress"`
	BaseTokenAmountAdded  float64 `json:"baseTokenAmountAdded"`
	QuoteTokenAmountAdded float64 `json:"quoteTokenAmountAdded"`
}

type AddLiquidityData struct {
	Fee                   float64 `json:"fee"`
	BaseTokenAmountAdded  float64 `json:"baseTokenAmountAdded"`
	QuoteTokenAmountAdded float64 `json:"quoteTokenAmountAdded"`
}

type RemoveLiquidityData struct {
	Fee                     float64 `json:"fee"`
	BaseTokenAmountRemoved  float64 `json:"baseTokenAmountRemoved"`
	QuoteTokenAmountRemoved float64 `json:"quoteTokenAmountRemoved"`
}

type CollectFeesData struct {
	Fee                     float64 `json:"fee"`
	BaseFeeAmountCollected  float64 `json:"baseFeeAmountCollected"`
	QuoteFeeAmountCollected float64 `json:"quoteFeeAmountCollected"`
}

type ClosePositionData struct {
	Fee                     float64 `json:"fee"`
	PositionRentRefunded    float64 `json:"positionRentRefunded"`
	BaseTokenAmountRemoved  float64 `json:"baseTokenAmountRemoved"`
	QuoteTokenAmountRemoved float64 `json:"quoteTokenAmountRemoved"`
	BaseFeeAmountCollected  float64 `json:"baseFeeAmountCollected"`
	QuoteFeeAmountCollected float64 `json:"quoteFeeAmountCollected"`
}

type AccruedAmount struct {
	Symbol  string  `json:"symbol"`
	Amount  float64 `json:"amount"`
	Address string  `json:"address"`
}
