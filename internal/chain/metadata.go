package chain

import (
	"context"
	"sync"

	"clmmGateway/internal/model"
)

// MetaStore is a shared coin metadata store consulted after the in-process
// cache and before the fullnode.
type MetaStore interface {
	GetTokenMeta(ctx context.Context, coinType string) (model.TokenMeta, error)
	SetTokenMeta(ctx context.Context, meta model.TokenMeta) error
}

// CoinMetaCache caches coin metadata by normalized coin type.
type CoinMetaCache struct {
	mu   sync.RWMutex
	data map[string]model.TokenMeta
}

func NewCoinMetaCache() *CoinMetaCache {
	return &CoinMetaCache{data: make(map[string]model.TokenMeta)}
}

func (c *CoinMetaCache) Get(coinType string) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[coinType]
	c.mu.RUnlock()
	return meta, ok
}

func (c *CoinMetaCache) Set(coinType string, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[coinType] = meta
	c.mu.Unlock()
}
