package catalog

import (
	"context"
	"errors"
	"reflect"

	"mostrador/internal/api"
	"mostrador/internal/format"
	"mostrador/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, max=50 work without panicking on the custom type.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// ErrClienteNoEncontrado is returned when a document search matches nothing.
var ErrClienteNoEncontrado = errors.New("cliente no encontrado")

// Clientes resolves customers by document or name, and quick-creates them
// from the checkout screen.
type Clientes struct {
	client *api.Client
}

func NewClientes(client *api.Client) *Clientes {
	return &Clientes{client: client}
}

// PorDocumento looks a client up by DNI or RUC. The document is validated
// locally first; a malformed number never reaches the backend.
func (c *Clientes) PorDocumento(ctx context.Context, documento string) (*model.Cliente, error) {
	if err := format.ValidarDocumento(documento); err != nil {
		return nil, err
	}
	var resp model.ClienteListResponse
	if err := c.client.Get(ctx, api.Endpoints.ClientePorDocumento(documento), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrClienteNoEncontrado
	}
	return &resp.Data[0], nil
}

// BuscarPorNombre returns one page of clients matching the name fragment.
func (c *Clientes) BuscarPorNombre(ctx context.Context, nombre string, page, limit int) (*model.ClienteListResponse, error) {
	var resp model.ClienteListResponse
	if err := c.client.Get(ctx, api.Endpoints.ClientesPorNombre(nombre, page, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CrearRapido creates a minimal client record from the checkout screen.
// Field validation (tags plus document checksum) runs before the request.
func (c *Clientes) CrearRapido(ctx context.Context, req model.CrearClienteRequest) (*model.Cliente, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var docErr error
	switch req.TipoDocumento {
	case model.DocumentoDNI:
		docErr = format.ValidarDNI(req.NumeroDocumento)
	case model.DocumentoRUC:
		docErr = format.ValidarRUC(req.NumeroDocumento)
	}
	if docErr != nil {
		return nil, docErr
	}

	var cliente model.Cliente
	if err := c.client.Post(ctx, api.Endpoints.Clientes(), req, &cliente); err != nil {
		return nil, err
	}
	return &cliente, nil
}
