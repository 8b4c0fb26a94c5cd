package catalog

import (
	"context"
	"encoding/json"
	"time"

	"mostrador/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "producto:codigo:"

// ProductoCache is a Redis-backed barcode → product cache with a short TTL.
// Stock figures in a cached entry are as stale as the TTL allows; the cart
// snapshots stock per line and the server re-validates at checkout, so a
// stale read here never corrupts a sale.
type ProductoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProductoCache wraps an existing Redis client. A nil ProductoCache is
// valid and disables caching entirely.
func NewProductoCache(rdb *redis.Client, ttl time.Duration) *ProductoCache {
	return &ProductoCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached product or nil. Errors are logged and treated as
// misses — the cache must never take the lookup path down with it.
func (c *ProductoCache) Get(ctx context.Context, codigo string) *model.Producto {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+codigo).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("codigo", codigo).Msg("cache de productos: lectura fallida")
		}
		return nil
	}
	var producto model.Producto
	if err := json.Unmarshal(raw, &producto); err != nil {
		return nil
	}
	return &producto
}

// Set stores the product under its barcode, best effort.
func (c *ProductoCache) Set(ctx context.Context, codigo string, p *model.Producto) {
	if c == nil || c.rdb == nil || p == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+codigo, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("cache de productos: escritura fallida")
	}
}

// Invalidate drops one barcode entry, used after a sale changes its stock.
func (c *ProductoCache) Invalidate(ctx context.Context, codigo string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, cacheKeyPrefix+codigo).Err()
}
