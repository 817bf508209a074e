package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"clmmGateway/internal/model"
)

var (
	ErrTxNotFound     = errors.New("transaction not found")
	ErrObjectNotFound = errors.New("object not found")
)

// Observer receives one callback per RPC call.
type Observer func(method string, elapsed time.Duration, err error)

// Option configures a Client.
type Option func(*Client)

// WithMetaStore adds a shared second-level coin metadata store.
func WithMetaStore(store MetaStore) Option {
	return func(c *Client) { c.metaStore = store }
}

// WithObserver installs a per-call observer, typically for metrics.
func WithObserver(fn Observer) Option {
	return func(c *Client) { c.observe = fn }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client wraps a JSON-RPC connection to a Sui fullnode.
type Client struct {
	rpcClient *rpc.Client
	url       string

	metaCache *CoinMetaCache
	metaStore MetaStore
	observe   Observer
	logger    *zap.Logger
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts ...Option) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		rpcClient: rpcClient,
		url:       rpcURL,
		metaCache: NewCoinMetaCache(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the fullnode URL the client was dialed with.
func (c *Client) URL() string {
	return c.url
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
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

// LatestCheckpoint returns the latest checkpoint sequence number.
func (c *Client) LatestCheckpoint(ctx context.Context) (uint64, error) {
	var raw string
	if err := c.call(ctx, &raw, "sui_getLatestCheckpointSequenceNumber"); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %q: %w", raw, err)
	}
	return n, nil
}

// ReferenceGasPrice returns the current reference gas price in MIST.
func (c *Client) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var raw string
	if err := c.call(ctx, &raw, "suix_getReferenceGasPrice"); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse gas price %q: %w", raw, err)
	}
	return n, nil
}

// GetTransactionBlock fetches a transaction with input, effects and events.
// A digest unknown to the fullnode yields ErrTxNotFound.
func (c *Client) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlockResponse, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}

	options := map[string]bool{
		"showInput":          true,
		"showEffects":        true,
		"showEvents":         true,
		"showBalanceChanges": true,
	}

	var raw json.RawMessage
	err := c.call(ctx, &raw, "sui_getTransactionBlock", digest, options)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, digest)
		}
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, digest)
	}
	return DecodeTransactionBlock(raw)
}

// GetAllBalances returns every coin balance held by owner.
func (c *Client) GetAllBalances(ctx context.Context, owner string) ([]Balance, error) {
	addr, err := NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	var balances []Balance
	if err := c.call(ctx, &balances, "suix_getAllBalances", addr); err != nil {
		return nil, err
	}
	return balances, nil
}

// GetCoinMetadata returns decimals and symbol for a coin type. Results are
// cached for the life of the client since coin metadata is immutable.
func (c *Client) GetCoinMetadata(ctx context.Context, coinType string) (model.TokenMeta, error) {
	key, err := NormalizeCoinType(coinType)
	if err != nil {
		return model.TokenMeta{}, err
	}
	if meta, ok := c.metaCache.Get(key); ok {
		return meta, nil
	}
	if c.metaStore != nil {
		if meta, err := c.metaStore.GetTokenMeta(ctx, key); err == nil {
			c.metaCache.Set(key, meta)
			return meta, nil
		}
	}

	var raw struct {
		Decimals uint8  `json:"decimals"`
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
	}
	var payload json.RawMessage
	if err := c.call(ctx, &payload, "suix_getCoinMetadata", key); err != nil {
		return model.TokenMeta{}, err
	}
	if len(payload) == 0 || string(payload) == "null" {
		return model.TokenMeta{}, fmt.Errorf("%w: coin metadata for %s", ErrObjectNotFound, key)
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.TokenMeta{}, fmt.Errorf("decode coin metadata %s: %w", key, err)
	}

	meta := model.TokenMeta{
		Address:  key,
		Decimals: raw.Decimals,
		Symbol:   raw.Symbol,
		Name:     raw.Name,
	}
	c.metaCache.Set(key, meta)
	if c.metaStore != nil {
		if err := c.metaStore.SetTokenMeta(ctx, meta); err != nil {
			c.logger.Debug("coin metadata store write failed", zap.String("coin_type", key), zap.Error(err))
		}
	}
	return meta, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, rpc.ErrNoResult) {
		return true
	}
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	msg := strings.ToLower(rpcErr.Error())
	return strings.Contains(msg, "could not find") || strings.Contains(msg, "not found")
}
