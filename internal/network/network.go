package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmm"
	"clmmGateway/internal/model"
	"clmmGateway/internal/outcome"
	"clmmGateway/internal/storage"
	"clmmGateway/internal/tokens"
)

// ErrUnknownNetwork is returned for a network name with no configuration.
var ErrUnknownNetwork = errors.New("unknown network")

const (
	chainName = "sui"

	// computeUnits is the nominal budget used for gas estimates.
	computeUnits = 200_000
	denomination = "MIST"

	suiCoinType   = "0x2::sui::SUI"
	suiSymbol     = "SUI"
	suiDecimals   = 9
	pollOperation = "poll"
)

// ChainQuery is the fullnode capability used by the chain routes.
type ChainQuery interface {
	LatestCheckpoint(ctx context.Context) (uint64, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	GetTransactionBlock(ctx context.Context, digest string) (*chain.TransactionBlockResponse, error)
	GetAllBalances(ctx context.Context, owner string) ([]chain.Balance, error)
	GetCoinMetadata(ctx context.Context, coinType string) (model.TokenMeta, error)
}

// Config assembles a Network from already constructed parts.
type Config struct {
	Name           string
	RPCURL         string
	NativeCurrency string
	Chain          ChainQuery
	Tokens         *tokens.List
	Journal        storage.Journal
	Connector      *clmm.Connector
	Logger         *zap.Logger
	Closers        []func()
}

// Network bundles the chain services and the CLMM connector of one Sui
// network. It is built once and shared by all requests.
type Network struct {
	name           string
	rpcURL         string
	nativeCurrency string
	chain          ChainQuery
	tokens         *tokens.List
	journal        storage.Journal
	connector      *clmm.Connector
	logger         *zap.Logger
	closers        []func()
}

func New(cfg Config) (*Network, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("network %s: chain client is required", cfg.Name)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	native := cfg.NativeCurrency
	if native == "" {
		native = suiSymbol
	}
	return &Network{
		name:           cfg.Name,
		rpcURL:         cfg.RPCURL,
		nativeCurrency: native,
		chain:          cfg.Chain,
		tokens:         cfg.Tokens,
		journal:        cfg.Journal,
		connector:      cfg.Connector,
		logger:         logger.With(zap.String("network", cfg.Name)),
		closers:        cfg.Closers,
	}, nil
}

func (n *Network) Name() string { return n.name }

// Connector returns the Bluefin CLMM connector, or nil when the network has
// no spot sidecar configured.
func (n *Network) Connector() *clmm.Connector { return n.connector }

func (n *Network) Tokens() *tokens.List { return n.tokens }

// Close releases the RPC connections owned by the network.
func (n *Network) Close() {
	for _, fn := range n.closers {
		fn()
	}
}

// Status describes the chain the network is connected to.
type Status struct {
	Chain              string `json:"chain"`
	Network            string `json:"network"`
	RPCURL             string `json:"rpcUrl"`
	CurrentBlockNumber uint64 `json:"currentBlockNumber"`
	NativeCurrency     string `json:"nativeCurrency"`
}

func (n *Network) Status(ctx context.Context) (Status, error) {
	checkpoint, err := n.chain.LatestCheckpoint(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status of %s: %w", n.name, err)
	}
	return Status{
		Chain:              chainName,
		Network:            n.name,
		RPCURL:             n.rpcURL,
		CurrentBlockNumber: checkpoint,
		NativeCurrency:     n.nativeCurrency,
	}, nil
}

// PollResult is the state of a transaction as seen by the fullnode.
// TxBlock, Fee and TxData are nil until the transaction has effects.
type PollResult struct {
	CurrentBlock uint64
	Signature    string
	TxBlock      *uint64
	TxStatus     outcome.Status
	Fee          *decimal.Decimal
	TxData       []byte
	Error        string
}

// Poll looks up a transaction by digest. A digest unknown to the fullnode is
// reported as pending rather than failed since it may not be indexed yet.
func (n *Network) Poll(ctx context.Context, signature string) (PollResult, error) {
	if err := chain.ValidateDigest(signature); err != nil {
		return PollResult{}, err
	}
	current, err := n.chain.LatestCheckpoint(ctx)
	if err != nil {
		return PollResult{}, fmt.Errorf("poll %s: %w", signature, err)
	}

	result := PollResult{CurrentBlock: current, Signature: signature, TxStatus: outcome.StatusPending}
	resp, err := n.chain.GetTransactionBlock(ctx, signature)
	if err != nil {
		if errors.Is(err, chain.ErrTxNotFound) {
			return result, nil
		}
		return PollResult{}, fmt.Errorf("poll %s: %w", signature, err)
	}

	res, err := outcome.Resolve(resp)
	if err != nil {
		return PollResult{}, fmt.Errorf("poll %s: %w", signature, err)
	}
	result.TxStatus = res.Status
	result.TxBlock = res.Checkpoint
	result.Fee = res.Fee
	result.Error = res.Error
	result.TxData = resp.Raw

	if resp.Effects != nil {
		n.record(ctx, res)
	}
	return result, nil
}

func (n *Network) record(ctx context.Context, res outcome.Result) {
	if n.journal == nil {
		return
	}
	rec := model.TxRecord{
		Network:    n.name,
		Signature:  res.Signature,
		Operation:  pollOperation,
		Status:     int(res.Status),
		Error:      res.Error,
		Checkpoint: res.Checkpoint,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if res.Fee != nil {
		fee := res.Fee.String()
		rec.Fee = &fee
	}
	if err := n.journal.PutTxBatch(ctx, []model.TxRecord{rec}); err != nil {
		n.logger.Warn("journal write failed", zap.String("signature", res.Signature), zap.Error(err))
	}
}

// GasEstimate prices a nominal transaction at the reference gas price.
type GasEstimate struct {
	FeePerComputeUnit uint64          `json:"feePerComputeUnit"`
	Denomination      string          `json:"denomination"`
	ComputeUnits      uint64          `json:"computeUnits"`
	FeeAsset          string          `json:"feeAsset"`
	Fee               decimal.Decimal `json:"fee"`
	Timestamp         int64           `json:"timestamp"`
}

func (n *Network) EstimateGas(ctx context.Context) (GasEstimate, error) {
	price, err := n.chain.ReferenceGasPrice(ctx)
	if err != nil {
		return GasEstimate{}, fmt.Errorf("estimate gas on %s: %w", n.name, err)
	}
	fee := decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(computeUnits)).Shift(-suiDecimals)
	return GasEstimate{
		FeePerComputeUnit: price,
		Denomination:      denomination,
		ComputeUnits:      computeUnits,
		FeeAsset:          n.nativeCurrency,
		Fee:               fee,
		Timestamp:         time.Now().UnixMilli(),
	}, nil
}

// Balance is one named balance in human units.
type Balance struct {
	Symbol string
	Amount decimal.Decimal
}

// Balances returns the balances of address. With an explicit token list the
// result holds exactly those entries (zero when unheld or unknown), SUI
// first when requested. Without one it lists SUI and every positive balance
// of a listed token, plus unlisted coin types when fetchAll is set.
func (n *Network) Balances(ctx context.Context, address string, symbols []string, fetchAll bool) ([]Balance, error) {
	owner, err := chain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	raw, err := n.chain.GetAllBalances(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("balances of %s: %w", owner, err)
	}

	held := make(map[string]string, len(raw))
	var order []string
	for _, b := range raw {
		coinType, err := chain.NormalizeCoinType(b.CoinType)
		if err != nil {
			n.logger.Debug("skipping malformed coin type", zap.String("coin_type", b.CoinType))
			continue
		}
		if _, ok := held[coinType]; !ok {
			order = append(order, coinType)
		}
		held[coinType] = b.TotalBalance
	}
	sui, _ := chain.NormalizeCoinType(suiCoinType)

	if len(symbols) > 0 {
		return n.requestedBalances(ctx, symbols, held, sui)
	}

	suiAmount, err := amountOf(held[sui], suiDecimals)
	if err != nil {
		return nil, err
	}
	out := []Balance{{Symbol: suiSymbol, Amount: suiAmount}}
	seen := map[string]struct{}{suiSymbol: {}}
	for _, coinType := range order {
		if coinType == sui {
			continue
		}
		name, decimals, ok := n.describe(ctx, coinType, fetchAll)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		amount, err := amountOf(held[coinType], decimals)
		if err != nil {
			return nil, err
		}
		if amount.IsPositive() {
			out = append(out, Balance{Symbol: name, Amount: amount})
		}
	}
	return out, nil
}

func (n *Network) requestedBalances(ctx context.Context, symbols []string, held map[string]string, sui string) ([]Balance, error) {
	out := make([]Balance, 0, len(symbols))
	for _, s := range symbols {
		if strings.EqualFold(s, suiSymbol) {
			amount, err := amountOf(held[sui], suiDecimals)
			if err != nil {
				return nil, err
			}
			out = append(out, Balance{Symbol: suiSymbol, Amount: amount})
			break
		}
	}
	for _, symbol := range symbols {
		if strings.EqualFold(symbol, suiSymbol) {
			continue
		}
		if tok, ok := n.tokens.Get(symbol); ok {
			amount, err := amountOf(held[tok.Address], tok.Decimals)
			if err != nil {
				return nil, err
			}
			out = append(out, Balance{Symbol: symbol, Amount: amount})
			continue
		}
		if !chain.IsCoinType(symbol) {
			out = append(out, Balance{Symbol: symbol, Amount: decimal.Zero})
			continue
		}
		coinType, err := chain.NormalizeCoinType(symbol)
		if err != nil {
			return nil, err
		}
		raw, ok := held[coinType]
		if !ok {
			out = append(out, Balance{Symbol: symbol, Amount: decimal.Zero})
			continue
		}
		meta, err := n.chain.GetCoinMetadata(ctx, coinType)
		if err != nil {
			return nil, fmt.Errorf("decimals of %s: %w", coinType, err)
		}
		amount, err := amountOf(raw, meta.Decimals)
		if err != nil {
			return nil, err
		}
		out = append(out, Balance{Symbol: symbol, Amount: amount})
	}
	return out, nil
}

// describe names a held coin type. Listed tokens use their symbol; unlisted
// ones are only reported when fetchAll is set, keyed by coin type, and are
// left out when their decimals cannot be read.
func (n *Network) describe(ctx context.Context, coinType string, fetchAll bool) (string, uint8, bool) {
	if tok, ok := n.tokens.ByAddress(coinType); ok {
		return tok.Symbol, tok.Decimals, true
	}
	if !fetchAll {
		return "", 0, false
	}
	meta, err := n.chain.GetCoinMetadata(ctx, coinType)
	if err != nil {
		n.logger.Warn("omitting balance without coin metadata", zap.String("coin_type", coinType), zap.Error(err))
		return "", 0, false
	}
	return coinType, meta.Decimals, true
}

func amountOf(raw string, decimals uint8) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance %q: %w", raw, err)
	}
	return v.Shift(-int32(decimals)), nil
}
