package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is the product shape returned by the backend catalog endpoints.
// StockActual is a snapshot at response time; the cart keeps its own copy per
// line and the server re-validates at checkout.
type Producto struct {
	ID           uuid.UUID       `json:"id"`
	CodigoBarras string          `json:"codigo_barras"`
	Nombre       string          `json:"nombre"`
	Categoria    string          `json:"categoria"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	StockActual  int             `json:"stock_actual"`
	StockMinimo  int             `json:"stock_minimo"`
	UnidadMedida string          `json:"unidad_medida"`
	Activo       bool            `json:"activo"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductoListResponse is the paged envelope of GET /v1/productos.
type ProductoListResponse struct {
	Data  []Producto `json:"data"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}
