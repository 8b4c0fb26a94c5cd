package model

import (
	"github.com/shopspring/decimal"
)

// MetodoPago enumerates the payment methods the backend accepts.
type MetodoPago string

const (
	PagoEfectivo      MetodoPago = "efectivo"
	PagoTarjeta       MetodoPago = "tarjeta"
	PagoYape          MetodoPago = "yape"
	PagoTransferencia MetodoPago = "transferencia"
)

// TipoComprobante is the Peruvian fiscal-document distinction: BOLETA is the
// simplified receipt, FACTURA the tax invoice (requires a RUC client).
type TipoComprobante string

const (
	ComprobanteBoleta  TipoComprobante = "BOLETA"
	ComprobanteFactura TipoComprobante = "FACTURA"
)

type ItemVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"   validate:"min=0,max=50"`
}

type PagoRequest struct {
	Metodo MetodoPago      `json:"metodo" validate:"required,oneof=efectivo tarjeta yape transferencia"`
	Monto  decimal.Decimal `json:"monto"  validate:"required"`
}

// RegistrarVentaRequest is the single finalized transaction posted at checkout.
type RegistrarVentaRequest struct {
	ClienteID       string             `json:"cliente_id"       validate:"required,uuid"`
	TipoComprobante TipoComprobante    `json:"tipo_comprobante" validate:"required,oneof=BOLETA FACTURA"`
	Items           []ItemVentaRequest `json:"items"            validate:"required,min=1,dive"`
	Pago            PagoRequest        `json:"pago"             validate:"required"`
}

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// VentaResponse carries the server-assigned identifier and ticket number the
// terminal shows (and prints) once the sale is persisted.
type VentaResponse struct {
	ID              string              `json:"id"`
	NumeroTicket    int                 `json:"numero_ticket"`
	TipoComprobante TipoComprobante     `json:"tipo_comprobante"`
	Cliente         string              `json:"cliente"`
	Items           []ItemVentaResponse `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DescuentoTotal  decimal.Decimal     `json:"descuento_total"`
	Total           decimal.Decimal     `json:"total"`
	Pago            PagoRequest         `json:"pago"`
	Vuelto          decimal.Decimal     `json:"vuelto"`
	CreatedAt       string              `json:"created_at"`
}
