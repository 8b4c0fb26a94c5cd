// Package catalog implements the product and client lookup services the cart
// workflow depends on. Both are thin, typed facades over the API client; the
// barcode path additionally goes through a short-lived Redis cache so repeated
// scans of the same product do not hit the backend.
package catalog

import (
	"context"

	"mostrador/internal/api"
	"mostrador/internal/model"

	"github.com/google/uuid"
)

// Productos resolves products by barcode, id or free text.
type Productos struct {
	client *api.Client
	cache  *ProductoCache
}

// NewProductos builds the lookup service. cache may be nil (lookups go
// straight to the backend).
func NewProductos(client *api.Client, cache *ProductoCache) *Productos {
	return &Productos{client: client, cache: cache}
}

// PorCodigo resolves a barcode scan. Cache first, backend on miss; a cache
// that is down degrades silently to backend-only.
func (p *Productos) PorCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	if hit := p.cache.Get(ctx, codigo); hit != nil {
		return hit, nil
	}
	var producto model.Producto
	if err := p.client.Get(ctx, api.Endpoints.ProductoPorCodigo(codigo), &producto); err != nil {
		return nil, err
	}
	p.cache.Set(ctx, codigo, &producto)
	return &producto, nil
}

// PorID resolves a product by its identifier, bypassing the cache.
func (p *Productos) PorID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var producto model.Producto
	if err := p.client.Get(ctx, api.Endpoints.ProductoPorID(id), &producto); err != nil {
		return nil, err
	}
	return &producto, nil
}

// Buscar returns one page of free-text search results. It is the fetch
// function behind the product table on the terminal.
func (p *Productos) Buscar(ctx context.Context, q string, page, limit int, sortField, sortDir string) (*model.ProductoListResponse, error) {
	var resp model.ProductoListResponse
	path := api.Endpoints.ProductosOrdenados(q, page, limit, sortField, sortDir)
	if err := p.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
