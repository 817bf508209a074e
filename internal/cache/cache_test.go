package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmmGateway/internal/model"
)

func TestDisabledCache(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	_, err := c.GetTokenMeta(ctx, "0x2::sui::SUI")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.SetTokenMeta(ctx, model.TokenMeta{Address: "0x2::sui::SUI"}), ErrDisabled)
	assert.ErrorIs(t, c.Ping(ctx), ErrDisabled)
	assert.NoError(t, c.Close())

	var nilCache *Cache
	_, err = nilCache.GetTokenMeta(ctx, "0x2::sui::SUI")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, nilCache.ForNetwork("mainnet"))
}

func TestKeysAreScopedByNetwork(t *testing.T) {
	base := New(Config{})
	assert.Equal(t, "sui:default:coinmeta:0x2::sui::SUI", base.key("0x2::sui::SUI"))
	assert.Equal(t, "sui:testnet:coinmeta:0x2::sui::SUI", base.ForNetwork("testnet").key("0x2::sui::SUI"))
}

func TestDefaultTTL(t *testing.T) {
	c := New(Config{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = c.Close() })
	require.NotNil(t, c.client)
	assert.Equal(t, 24*time.Hour, c.cfg.TTL)
}

func TestUnreachableServerSurfacesError(t *testing.T) {
	c := New(Config{Addr: "127.0.0.1:1", TTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.GetTokenMeta(ctx, "0x2::sui::SUI")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDisabled)
}
