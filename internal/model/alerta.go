package model

import (
	"time"

	"github.com/google/uuid"
)

// Urgencia drives the audible cue and visual priority of an alert.
type Urgencia string

const (
	UrgenciaCritico Urgencia = "CRITICO"
	UrgenciaAlto    Urgencia = "ALTO"
	UrgenciaMedio   Urgencia = "MEDIO"
	UrgenciaBajo    Urgencia = "BAJO"
)

// TipoAlerta enumerates the alert kinds the backend generates.
type TipoAlerta string

const (
	AlertaStockBajo           TipoAlerta = "STOCK_BAJO"
	AlertaStockCritico        TipoAlerta = "STOCK_CRITICO"
	AlertaVentaAnulada        TipoAlerta = "VENTA_ANULADA"
	AlertaDevolucionPendiente TipoAlerta = "DEVOLUCION_PENDIENTE"
)

// AlertaProducto is the product snapshot embedded in stock alerts.
type AlertaProducto struct {
	Nombre      string `json:"nombre"`
	Codigo      string `json:"codigo"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

// Alerta is a server-generated notification surfaced to authenticated users.
type Alerta struct {
	ID        uuid.UUID       `json:"id"`
	Tipo      TipoAlerta      `json:"tipo"`
	Urgencia  Urgencia        `json:"urgencia"`
	Mensaje   string          `json:"mensaje"`
	CreatedAt time.Time       `json:"created_at"`
	Leida     bool            `json:"leida"`
	LeidaEn   *time.Time      `json:"leida_en,omitempty"`
	LeidaPor  *string         `json:"leida_por,omitempty"`
	Producto  *AlertaProducto `json:"producto,omitempty"`
}

// MarcarLeidaRequest is the read receipt sent by PUT /v1/alertas/:id/leida.
type MarcarLeidaRequest struct {
	UsuarioID uuid.UUID `json:"usuario_id" validate:"required"`
}
