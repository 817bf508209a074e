package clmm

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/model"
	"clmmGateway/internal/tokens"
)

const (
	bluefinPackage = "0x3492c874c1e3b3e2984e8c41b589e642d4d0a5d6459e5a9cfc2d52fd7c89c267"
	walUSDCPool    = "0xbcc6909d2e85c06cf9cbfe5b292da36f5bfa0f314806474bbf6a0bf9744d37ce"
	walletAddr     = "0xaf9306cac62396be300b175046140c392eed876bd8ac0efac6301cea286fa272"
	positionAddr   = "0x6c2547cbbc38025cf3adac45f63cb0a8d12ecf777cdc75a4971612bf97fdf6af"
	walType        = "0x356a26eb9e012a68958082340d4c4116e7f55615cf27affcff209cf0ae544f59::wal::WAL"
	usdcType       = "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC"
	suiType        = "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"

	swapDigest  = "Fyy9HfmVfr9HZTWW5M1aW3Q3hsH8EsKmnSFrpuMfxWhv"
	closeDigest = "8Er928dxJSGCyJENnmfFPfdgpBntRxxcpLGLDJ6BcALh"
)

// sqrt price of 0.42 USDC per WAL at 9/6 decimals, tick -77757.
var walSqrtPrice, _ = new(big.Int).SetString("378045756631117544", 10)

var swapGas = chain.GasCostSummary{
	ComputationCost: "750000",
	StorageCost:     "4651600",
	StorageRebate:   "2986220",
}

func walUSDC() *model.Pool {
	return &model.Pool{
		ID:   walUSDCPool,
		Name: "WAL-USDC",
		CoinA: model.Coin{
			Address:  walType,
			Decimals: 9,
			Balance:  big.NewInt(1_250_000_000_000_000),
		},
		CoinB: model.Coin{
			Address:  usdcType,
			Decimals: 6,
			Balance:  big.NewInt(512_000_000_000),
		},
		CurrentSqrtPrice:  new(big.Int).Set(walSqrtPrice),
		CurrentTick:       -77757,
		FeeRateMillionths: 2000,
		TickSpacing:       60,
		Liquidity:         big.NewInt(9_000_000_000_000),
	}
}

func walPosition() *model.Position {
	return &model.Position{
		ID:          positionAddr,
		PoolID:      walUSDCPool,
		CoinTypeA:   walType,
		CoinTypeB:   usdcType,
		TickLower:   -78000,
		TickUpper:   -77400,
		Liquidity:   big.NewInt(250_000_000_000),
		AccruedFeeA: big.NewInt(1_500_000_000),
		AccruedFeeB: big.NewInt(620_000),
	}
}

func tokenList(t *testing.T) *tokens.List {
	t.Helper()
	list, err := tokens.New([]tokens.Token{
		{Symbol: "SUI", Name: "Sui", Address: "0x2::sui::SUI", Decimals: 9},
		{Symbol: "WAL", Name: "Walrus", Address: walType, Decimals: 9},
		{Symbol: "USDC", Name: "USD Coin", Address: usdcType, Decimals: 6},
	})
	require.NoError(t, err)
	return list
}

type chainResp = chain.TransactionBlockResponse

func event(suffix, payload string) chain.Event {
	return chain.Event{Type: bluefinPackage + suffix, ParsedJSON: json.RawMessage(payload)}
}

func confirmedTx(digest string, gas chain.GasCostSummary, events ...chain.Event) *chain.TransactionBlockResponse {
	return &chain.TransactionBlockResponse{
		Digest:     digest,
		Checkpoint: "154882019",
		Effects: &chain.Effects{
			Status:  chain.ExecutionStatus{Status: "success"},
			GasUsed: gas,
		},
		Events: events,
	}
}

func failedTx(digest, msg string, gas chain.GasCostSummary) *chain.TransactionBlockResponse {
	return &chain.TransactionBlockResponse{
		Digest: digest,
		Effects: &chain.Effects{
			Status:  chain.ExecutionStatus{Status: "failure", Error: msg},
			GasUsed: gas,
		},
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

type fakeChain struct {
	mu        sync.Mutex
	pools     map[string]*model.Pool
	positions map[string]*model.Position
	owned     []model.Position
	txs       map[string]*chain.TransactionBlockResponse
	txLookups int
	poolReads int
}

func newFakeChain() *fakeChain {
	pool := walUSDC()
	pos := walPosition()
	return &fakeChain{
		pools:     map[string]*model.Pool{pool.ID: pool},
		positions: map[string]*model.Position{pos.ID: pos},
		txs:       map[string]*chain.TransactionBlockResponse{},
	}
}

func (f *fakeChain) GetPool(_ context.Context, poolID string) (*model.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poolReads++
	p, ok := f.pools[poolID]
	if !ok {
		return nil, chain.ErrObjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeChain) GetPosition(_ context.Context, positionID string) (*model.Position, error) {
	p, ok := f.positions[positionID]
	if !ok {
		return nil, chain.ErrObjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeChain) GetUserPositions(_ context.Context, packageID, owner string) ([]model.Position, error) {
	return append([]model.Position(nil), f.owned...), nil
}

func (f *fakeChain) GetTransactionBlock(_ context.Context, digest string) (*chain.TransactionBlockResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txLookups++
	tx, ok := f.txs[digest]
	if !ok {
		return nil, chain.ErrTxNotFound
	}
	return tx, nil
}

type fakeExec struct {
	simulations []*chain.TransactionBlockResponse
	simCalls    []SwapParams

	swapResp  *chain.TransactionBlockResponse
	swapCalls []SwapParams

	openResp    *chain.TransactionBlockResponse
	openCalls   []OpenPositionParams
	provideResp *chain.TransactionBlockResponse
	removeResp  *chain.TransactionBlockResponse
	liqCalls    []LiquidityParams
	collectResp *chain.TransactionBlockResponse
	closeResp   *chain.TransactionBlockResponse

	accrued AccruedFees
	err     error
}

func (f *fakeExec) ComputeSwapResults(_ context.Context, p SwapParams) (*chain.TransactionBlockResponse, error) {
	f.simCalls = append(f.simCalls, p)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.simulations) == 0 {
		return nil, nil
	}
	next := f.simulations[0]
	if len(f.simulations) > 1 {
		f.simulations = f.simulations[1:]
	}
	return next, nil
}

func (f *fakeExec) SwapAssets(_ context.Context, _ string, p SwapParams) (*chain.TransactionBlockResponse, error) {
	f.swapCalls = append(f.swapCalls, p)
	return f.swapResp, f.err
}

func (f *fakeExec) OpenPosition(_ context.Context, _ string, p OpenPositionParams) (*chain.TransactionBlockResponse, error) {
	f.openCalls = append(f.openCalls, p)
	return f.openResp, f.err
}

func (f *fakeExec) ProvideLiquidity(_ context.Context, _ string, p LiquidityParams) (*chain.TransactionBlockResponse, error) {
	f.liqCalls = append(f.liqCalls, p)
	return f.provideResp, f.err
}

func (f *fakeExec) RemoveLiquidity(_ context.Context, _ string, p LiquidityParams) (*chain.TransactionBlockResponse, error) {
	f.liqCalls = append(f.liqCalls, p)
	return f.removeResp, f.err
}

func (f *fakeExec) CollectFeesAndRewards(context.Context, string, string, string) (*chain.TransactionBlockResponse, error) {
	return f.collectResp, f.err
}

func (f *fakeExec) ClosePosition(context.Context, string, string, string) (*chain.TransactionBlockResponse, error) {
	return f.closeResp, f.err
}

func (f *fakeExec) AccruedFeesAndRewards(context.Context, string, string) (AccruedFees, error) {
	return f.accrued, f.err
}

type fakeJournal struct {
	records []model.TxRecord
	err     error
}

func (j *fakeJournal) PutTxBatch(_ context.Context, records []model.TxRecord) error {
	j.records = append(j.records, records...)
	return j.err
}

func newTestConnector(t *testing.T, ch *fakeChain, exec *fakeExec, journal *fakeJournal) *Connector {
	t.Helper()
	cfg := Config{
		Network:   "mainnet",
		PackageID: bluefinPackage,
		Chain:     ch,
		Executor:  exec,
		Tokens:    tokenList(t),
	}
	if journal != nil {
		cfg.Journal = journal
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Executor: &fakeExec{}})
	assert.Error(t, err)
	_, err = New(Config{Chain: newFakeChain()})
	assert.Error(t, err)
}
