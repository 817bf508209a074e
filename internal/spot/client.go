package spot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmm"
)

// ErrEmptyResponse is returned when the sidecar answers with a null result.
var ErrEmptyResponse = errors.New("spot sidecar returned an empty result")

// Option configures a Client.
type Option func(*Client)

// WithObserver installs a per-call observer, typically for metrics.
func WithObserver(fn chain.Observer) Option {
	return func(c *Client) { c.observe = fn }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to the signing sidecar that builds, simulates and submits
// Bluefin spot transactions. It implements clmm.Executor.
type Client struct {
	rpcClient *rpc.Client
	url       string
	observe   chain.Observer
	logger    *zap.Logger
}

var _ clmm.Executor = (*Client)(nil)

func NewClient(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial spot sidecar %s: %w", url, err)
	}
	c := &Client{rpcClient: rpcClient, url: url, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) URL() string { return c.url }

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

type swapRequest struct {
	Pool        string `json:"pool"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	AToB        bool   `json:"aToB"`
	ByAmountIn  bool   `json:"byAmountIn"`
	SlippagePct string `json:"slippagePct"`
}

type openPositionRequest struct {
	Pool       string `json:"pool"`
	LowerTick  int32  `json:"lowerTick"`
	UpperTick  int32  `json:"upperTick"`
	Liquidity  string `json:"liquidity"`
	MaxAmountA string `json:"maxAmountA"`
	MaxAmountB string `json:"maxAmountB"`
	MinAmountA string `json:"minAmountA"`
	MinAmountB string `json:"minAmountB"`
}

type liquidityRequest struct {
	Pool       string `json:"pool"`
	Position   string `json:"position"`
	Liquidity  string `json:"liquidity"`
	MaxAmountA string `json:"maxAmountA,omitempty"`
	MaxAmountB string `json:"maxAmountB,omitempty"`
	MinAmountA string `json:"minAmountA"`
	MinAmountB string `json:"minAmountB"`
}

type positionRequest struct {
	Pool     string `json:"pool"`
	Position string `json:"position"`
}

type accruedResponse struct {
	Fee struct {
		CoinA string `json:"coinA"`
		CoinB string `json:"coinB"`
	} `json:"fee"`
	Rewards []struct {
		CoinType     string `json:"coinType"`
		CoinSymbol   string `json:"coinSymbol"`
		CoinDecimals uint8  `json:"coinDecimals"`
		CoinAmount   string `json:"coinAmount"`
	} `json:"rewards"`
}

func toSwapRequest(p clmm.SwapParams) swapRequest {
	return swapRequest{
		Pool:        p.PoolID,
		AmountIn:    amount(p.AmountIn),
		AmountOut:   amount(p.AmountOut),
		AToB:        p.AToB,
		ByAmountIn:  p.ByAmountIn,
		SlippagePct: p.SlippagePct.String(),
	}
}

func toLiquidityRequest(p clmm.LiquidityParams) liquidityRequest {
	req := liquidityRequest{
		Pool:       p.PoolID,
		Position:   p.PositionID,
		Liquidity:  amount(p.Liquidity),
		MinAmountA: amount(p.MinAmountA),
		MinAmountB: amount(p.MinAmountB),
	}
	if p.MaxAmountA != nil {
		req.MaxAmountA = p.MaxAmountA.String()
	}
	if p.MaxAmountB != nil {
		req.MaxAmountB = p.MaxAmountB.String()
	}
	return req
}

func (c *Client) ComputeSwapResults(ctx context.Context, p clmm.SwapParams) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_computeSwapResults", toSwapRequest(p))
}

func (c *Client) SwapAssets(ctx context.Context, signer string, p clmm.SwapParams) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_swapAssets", signer, toSwapRequest(p))
}

func (c *Client) OpenPosition(ctx context.Context, signer string, p clmm.OpenPositionParams) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_openPosition", signer, openPositionRequest{
		Pool:       p.PoolID,
		LowerTick:  p.TickLower,
		UpperTick:  p.TickUpper,
		Liquidity:  amount(p.Liquidity),
		MaxAmountA: amount(p.MaxAmountA),
		MaxAmountB: amount(p.MaxAmountB),
		MinAmountA: amount(p.MinAmountA),
		MinAmountB: amount(p.MinAmountB),
	})
}

func (c *Client) ProvideLiquidity(ctx context.Context, signer string, p clmm.LiquidityParams) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_provideLiquidity", signer, toLiquidityRequest(p))
}

func (c *Client) RemoveLiquidity(ctx context.Context, signer string, p clmm.LiquidityParams) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_removeLiquidity", signer, toLiquidityRequest(p))
}

func (c *Client) CollectFeesAndRewards(ctx context.Context, signer, poolID, positionID string) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_collectFeesAndRewards", signer, positionRequest{Pool: poolID, Position: positionID})
}

func (c *Client) ClosePosition(ctx context.Context, signer, poolID, positionID string) (*chain.TransactionBlockResponse, error) {
	return c.transaction(ctx, "spot_closePosition", signer, positionRequest{Pool: poolID, Position: positionID})
}

// AccruedFeesAndRewards reads the uncollected fees and rewards of a
// position without submitting anything.
func (c *Client) AccruedFeesAndRewards(ctx context.Context, poolID, positionID string) (clmm.AccruedFees, error) {
	var resp *accruedResponse
	if err := c.call(ctx, &resp, "spot_getAccruedFeeAndRewards", positionRequest{Pool: poolID, Position: positionID}); err != nil {
		return clmm.AccruedFees{}, err
	}
	if resp == nil {
		return clmm.AccruedFees{}, fmt.Errorf("spot_getAccruedFeeAndRewards: %w", ErrEmptyResponse)
	}

	feeA, err := parseAmount("fee.coinA", resp.Fee.CoinA)
	if err != nil {
		return clmm.AccruedFees{}, err
	}
	feeB, err := parseAmount("fee.coinB", resp.Fee.CoinB)
	if err != nil {
		return clmm.AccruedFees{}, err
	}
	out := clmm.AccruedFees{FeeA: feeA, FeeB: feeB}
	for i, r := range resp.Rewards {
		amt, err := parseAmount(fmt.Sprintf("rewards[%d].coinAmount", i), r.CoinAmount)
		if err != nil {
			return clmm.AccruedFees{}, err
		}
		out.Rewards = append(out.Rewards, clmm.Reward{
			CoinType: r.CoinType,
			Symbol:   r.CoinSymbol,
			Decimals: r.CoinDecimals,
			Amount:   amt,
		})
	}
	return out, nil
}

func (c *Client) transaction(ctx context.Context, method string, args ...interface{}) (*chain.TransactionBlockResponse, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, method, args...); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResponse)
	}
	resp, err := chain.DecodeTransactionBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	c.logger.Debug("spot call", zap.String("method", method), zap.String("digest", resp.Digest))
	return resp, nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	start := time.Now()
	err := c.rpcClient.CallContext(ctx, result, method, args...)
	if c.observe != nil {
		c.observe(method, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(field, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("spot_getAccruedFeeAndRewards: invalid %s %q", field, raw)
	}
	return v, nil
}
