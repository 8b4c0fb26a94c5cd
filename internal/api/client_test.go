package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

func TestGetDecodificaRespuesta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/productos", r.URL.Path)
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"total": 45})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, staticToken("abc123"))
	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, c.Get(context.Background(), "/v1/productos", &out))
	assert.Equal(t, 45, out.Total)
}

func TestSinTokenNoMandaAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, staticToken(""))
	require.NoError(t, c.Get(context.Background(), "/", nil))
}

func TestErrorConEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "stock insuficiente para Leche Gloria: disponible 8, solicitado 9",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.Post(context.Background(), "/v1/ventas", map[string]string{}, nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	// El mensaje del servidor viaja literal hasta el operador.
	assert.Equal(t, "stock insuficiente para Leche Gloria: disponible 8, solicitado 9", err.Error())
}

func TestErrorSinEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.Get(context.Background(), "/v1/alertas", nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
	assert.Equal(t, "el servidor respondio 502", err.Error())
}

func TestNoContentSinDecodificar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	require.NoError(t, c.Delete(context.Background(), "/v1/alertas/xyz"))
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "/v1/auth/login", Endpoints.Login())
	assert.Equal(t, "/v1/productos?limit=20&page=0&q=leche", Endpoints.Productos("leche", 0, 20))
	assert.Equal(t, "/v1/productos/codigo/7750100000011", Endpoints.ProductoPorCodigo("7750100000011"))
	id := uuid.MustParse("3d0f1fd2-9f55-4f2e-8b6c-9b1a2c3d4e5f")
	assert.Equal(t, "/v1/alertas/"+id.String()+"/leida", Endpoints.AlertaLeida(id))
}
