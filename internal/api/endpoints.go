package api

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Endpoints is the symbolic path catalog. The stores depend on these builders,
// never on literal paths, so a backend route change touches one file.
var Endpoints = endpoints{}

type endpoints struct{}

func (endpoints) Login() string { return "/v1/auth/login" }

func (endpoints) Productos(q string, page, limit int) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("page", fmt.Sprint(page))
	v.Set("limit", fmt.Sprint(limit))
	return "/v1/productos?" + v.Encode()
}

func (endpoints) ProductosOrdenados(q string, page, limit int, sortField, sortDir string) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("page", fmt.Sprint(page))
	v.Set("limit", fmt.Sprint(limit))
	if sortField != "" {
		v.Set("sort", sortField)
		v.Set("dir", sortDir)
	}
	return "/v1/productos?" + v.Encode()
}

func (endpoints) ProductoPorID(id uuid.UUID) string {
	return "/v1/productos/" + id.String()
}

func (endpoints) ProductoPorCodigo(codigo string) string {
	return "/v1/productos/codigo/" + url.PathEscape(codigo)
}

func (endpoints) Clientes() string { return "/v1/clientes" }

func (endpoints) ClientePorDocumento(doc string) string {
	return "/v1/clientes?documento=" + url.QueryEscape(doc)
}

func (endpoints) ClientesPorNombre(nombre string, page, limit int) string {
	v := url.Values{}
	v.Set("q", nombre)
	v.Set("page", fmt.Sprint(page))
	v.Set("limit", fmt.Sprint(limit))
	return "/v1/clientes?" + v.Encode()
}

func (endpoints) Ventas() string { return "/v1/ventas" }

func (endpoints) Alertas() string { return "/v1/alertas" }

func (endpoints) AlertaLeida(id uuid.UUID) string {
	return "/v1/alertas/" + id.String() + "/leida"
}

func (endpoints) Alerta(id uuid.UUID) string {
	return "/v1/alertas/" + id.String()
}
