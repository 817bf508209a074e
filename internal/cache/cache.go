package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clmmGateway/internal/model"
)

// ErrDisabled indicates the cache layer is disabled via configuration.
var ErrDisabled = errors.New("redis cache disabled")

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("cache miss")

// Config represents Redis client configuration options. An empty Addr
// disables the cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Network  string
}

// Enabled reports whether the cache should connect at all.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Cache stores coin metadata shared between gateway processes.
type Cache struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Cache from the provided configuration.
func New(cfg Config) *Cache {
	if !cfg.Enabled() {
		return &Cache{cfg: cfg}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client, cfg: cfg}
}

// ForNetwork returns a view of the cache whose keys are scoped to network.
// The underlying connection is shared.
func (c *Cache) ForNetwork(network string) *Cache {
	if c == nil {
		return nil
	}
	cfg := c.cfg
	cfg.Network = network
	return &Cache{client: c.client, cfg: cfg}
}

func (c *Cache) key(coinType string) string {
	network := c.cfg.Network
	if network == "" {
		network = "default"
	}
	return fmt.Sprintf("sui:%s:coinmeta:%s", network, coinType)
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrDisabled
	}
	return c.client.Ping(ctx).Err()
}

// GetTokenMeta retrieves cached metadata for a normalized coin type.
func (c *Cache) GetTokenMeta(ctx context.Context, coinType string) (model.TokenMeta, error) {
	if c == nil || c.client == nil {
		return model.TokenMeta{}, ErrDisabled
	}

	payload, err := c.client.Get(ctx, c.key(coinType)).Result()
	if errors.Is(err, redis.Nil) {
		return model.TokenMeta{}, ErrNotFound
	}
	if err != nil {
		return model.TokenMeta{}, err
	}

	var meta model.TokenMeta
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return model.TokenMeta{}, err
	}
	return meta, nil
}

// SetTokenMeta stores metadata under its coin type.
func (c *Cache) SetTokenMeta(ctx context.Context, meta model.TokenMeta) error {
	if c == nil || c.client == nil {
		return ErrDisabled
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(meta.Address), payload, c.cfg.TTL).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
