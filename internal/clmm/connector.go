package clmm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmmmath"
	"clmmGateway/internal/model"
)

// feeRateScale converts the pool fee rate (millionths) into percent.
var feeRateScale = decimal.NewFromInt(10_000)

// Config wires a Connector to one network.
type Config struct {
	Network   string
	PackageID string
	Chain     ChainReader
	Executor  Executor
	Tokens    TokenLookup
	Journal   Journal
	Logger    *zap.Logger
}

// Connector serves the Bluefin CLMM operations of one network.
type Connector struct {
	network   string
	packageID string
	chain     ChainReader
	exec      Executor
	tokens    TokenLookup
	swaps     *SwapQuoteEngine
	settler   *settler
	logger    *zap.Logger
}

func New(cfg Config) (*Connector, error) {
	if cfg.Chain == nil {
		return nil, errors.New("clmm connector requires a chain reader")
	}
	if cfg.Executor == nil {
		return nil, errors.New("clmm connector requires an executor")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("network", cfg.Network), zap.String("connector", "bluefin/clmm"))

	s := &settler{network: cfg.Network, chain: cfg.Chain, journal: cfg.Journal, logger: logger}
	return &Connector{
		network:   cfg.Network,
		packageID: cfg.PackageID,
		chain:     cfg.Chain,
		exec:      cfg.Executor,
		tokens:    cfg.Tokens,
		swaps:     &SwapQuoteEngine{exec: cfg.Executor, settle: s},
		settler:   s,
		logger:    logger,
	}, nil
}

// Network returns the network this connector serves.
func (c *Connector) Network() string { return c.network }

// PoolInfo is a pool snapshot in human units.
type PoolInfo struct {
	Address           string
	BaseTokenAddress  string
	QuoteTokenAddress string
	BinStep           int32
	FeePct            decimal.Decimal
	Price             decimal.Decimal
	BaseTokenAmount   decimal.Decimal
	QuoteTokenAmount  decimal.Decimal
	ActiveBinID       int32
}

func (c *Connector) PoolInfo(ctx context.Context, poolID string) (PoolInfo, error) {
	pool, err := c.pool(ctx, poolID)
	if err != nil {
		return PoolInfo{}, err
	}
	return PoolInfo{
		Address:           pool.ID,
		BaseTokenAddress:  pool.CoinA.Address,
		QuoteTokenAddress: pool.CoinB.Address,
		BinStep:           pool.TickSpacing,
		FeePct:            decimal.NewFromInt(int64(pool.FeeRateMillionths)).Div(feeRateScale),
		Price:             clmmmath.PriceFromSqrtPrice(pool.CurrentSqrtPrice, pool.CoinA.Decimals, pool.CoinB.Decimals),
		BaseTokenAmount:   Unscale(pool.CoinA.Balance, pool.CoinA.Decimals),
		QuoteTokenAmount:  Unscale(pool.CoinB.Balance, pool.CoinB.Decimals),
		ActiveBinID:       pool.CurrentTick,
	}, nil
}

func (c *Connector) PositionInfo(ctx context.Context, positionID string) (PositionView, error) {
	position, pool, err := c.positionWithPool(ctx, positionID)
	if err != nil {
		return PositionView{}, err
	}
	return ToView(position, pool)
}

// PositionsOwned values every Bluefin position held by wallet, optionally
// restricted to one pool. Pools are fetched concurrently, once each.
func (c *Connector) PositionsOwned(ctx context.Context, wallet, poolID string) ([]PositionView, error) {
	owner, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return nil, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	if poolID != "" {
		if poolID, err = chain.NormalizeAddress(poolID); err != nil {
			return nil, &InvalidRangeError{Field: "poolAddress", Reason: err.Error()}
		}
	}

	positions, err := c.chain.GetUserPositions(ctx, c.packageID, owner)
	if err != nil {
		return nil, fmt.Errorf("positions of %s: %w", owner, err)
	}

	var poolIDs []string
	seen := make(map[string]struct{})
	kept := positions[:0]
	for _, p := range positions {
		if poolID != "" && p.PoolID != poolID {
			continue
		}
		kept = append(kept, p)
		if _, ok := seen[p.PoolID]; !ok {
			seen[p.PoolID] = struct{}{}
			poolIDs = append(poolIDs, p.PoolID)
		}
	}
	sort.Strings(poolIDs)

	pools := make([]*model.Pool, len(poolIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range poolIDs {
		i, id := i, id
		g.Go(func() error {
			pool, err := c.chain.GetPool(gctx, id)
			if err != nil {
				return fmt.Errorf("pool %s: %w", id, err)
			}
			pools[i] = pool
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Pool, len(pools))
	for i, id := range poolIDs {
		byID[id] = pools[i]
	}

	views := make([]PositionView, 0, len(kept))
	for i := range kept {
		view, err := ToView(&kept[i], byID[kept[i].PoolID])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SwapRequest is a base/quote denominated trade.
type SwapRequest struct {
	PoolID      string
	BaseToken   string
	QuoteToken  string
	Side        Side
	Amount      decimal.Decimal
	SlippagePct decimal.Decimal
}

func (c *Connector) QuoteSwap(ctx context.Context, req SwapRequest) (SwapOutcome, error) {
	pool, intent, err := c.swapIntent(ctx, req)
	if err != nil {
		return SwapOutcome{}, err
	}
	return c.swaps.Quote(ctx, pool, intent)
}

func (c *Connector) ExecuteSwap(ctx context.Context, wallet string, req SwapRequest) (SwapExecution, error) {
	signer, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return SwapExecution{}, &InvalidRangeError{Field: "walletAddress", Reason: err.Error()}
	}
	pool, intent, err := c.swapIntent(ctx, req)
	if err != nil {
		return SwapExecution{}, err
	}
	return c.swaps.Execute(ctx, pool, intent, signer)
}

func (c *Connector) swapIntent(ctx context.Context, req SwapRequest) (*model.Pool, SwapIntent, error) {
	pool, err := c.pool(ctx, req.PoolID)
	if err != nil {
		return nil, SwapIntent{}, err
	}
	d, err := ResolveDirection(pool, req.BaseToken, req.QuoteToken, req.Side, c.tokens)
	if err != nil {
		return nil, SwapIntent{}, err
	}
	if d.MatchedBySymbol {
		c.logger.Warn("token matched by coin struct name",
			zap.String("pool", pool.ID),
			zap.String("base", req.BaseToken),
			zap.String("quote", req.QuoteToken))
	}
	return pool, IntentForSide(d, req.Amount, req.SlippagePct), nil
}

func (c *Connector) pool(ctx context.Context, poolID string) (*model.Pool, error) {
	id, err := chain.NormalizeAddress(poolID)
	if err != nil {
		return nil, &InvalidRangeError{Field: "poolAddress", Reason: err.Error()}
	}
	pool, err := c.chain.GetPool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", id, err)
	}
	return pool, nil
}

func (c *Connector) positionWithPool(ctx context.Context, positionID string) (*model.Position, *model.Pool, error) {
	id, err := chain.NormalizeAddress(positionID)
	if err != nil {
		return nil, nil, &InvalidRangeError{Field: "positionAddress", Reason: err.Error()}
	}
	position, err := c.chain.GetPosition(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("position %s: %w", id, err)
	}
	pool, err := c.chain.GetPool(ctx, position.PoolID)
	if err != nil {
		return nil, nil, fmt.Errorf("pool %s of position %s: %w", position.PoolID, id, err)
	}
	return position, pool, nil
}
