package model

import (
	"time"

	"github.com/google/uuid"
)

// TipoDocumento distinguishes the two Peruvian identity documents the backend
// accepts on a sale: DNI for natural persons, RUC for businesses.
type TipoDocumento string

const (
	DocumentoDNI TipoDocumento = "DNI"
	DocumentoRUC TipoDocumento = "RUC"
)

// Cliente is a customer reference attached to a sale. The terminal only looks
// clients up (or quick-creates them); it never owns or mutates the record.
type Cliente struct {
	ID              uuid.UUID     `json:"id"`
	TipoDocumento   TipoDocumento `json:"tipo_documento"`
	NumeroDocumento string        `json:"numero_documento"`
	Nombre          string        `json:"nombre"`
	Telefono        string        `json:"telefono,omitempty"`
	Email           string        `json:"email,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CrearClienteRequest is the quick-create payload used from the checkout
// screen when the customer does not exist yet.
type CrearClienteRequest struct {
	TipoDocumento   TipoDocumento `json:"tipo_documento"   validate:"required,oneof=DNI RUC"`
	NumeroDocumento string        `json:"numero_documento" validate:"required"`
	Nombre          string        `json:"nombre"           validate:"required,min=3"`
	Telefono        string        `json:"telefono"         validate:"omitempty,len=9"`
	Email           string        `json:"email"            validate:"omitempty,email"`
}

// ClienteListResponse is the paged envelope of GET /v1/clientes.
type ClienteListResponse struct {
	Data  []Cliente `json:"data"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
