package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"mostrador/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTicketGeneraPDF(t *testing.T) {
	venta := &model.VentaResponse{
		ID:              "c0ffee00-0000-0000-0000-000000000001",
		NumeroTicket:    42,
		TipoComprobante: model.ComprobanteBoleta,
		Cliente:         "Jorge Mamani",
		Items: []model.ItemVentaResponse{
			{Producto: "Arroz Costeño 1kg", Cantidad: 2, PrecioUnitario: dec("4.50"), Subtotal: dec("9.00")},
			{Producto: "Aceite Primor 900ml con nombre larguisimo", Cantidad: 1, PrecioUnitario: dec("9.80"), DescuentoPct: dec("10"), Subtotal: dec("8.82")},
		},
		Subtotal:       dec("18.80"),
		DescuentoTotal: dec("0.98"),
		Total:          dec("17.82"),
		Pago:           model.PagoRequest{Metodo: model.PagoEfectivo, Monto: dec("20.00")},
		Vuelto:         dec("2.18"),
		CreatedAt:      "2026-08-31T10:30:00Z",
	}

	dir := filepath.Join(t.TempDir(), "tickets")
	path, err := Ticket(venta, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ticket_42.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(500), "el PDF tiene contenido real")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestTicketDirInvalido(t *testing.T) {
	venta := &model.VentaResponse{NumeroTicket: 1, Total: dec("1.00"), Pago: model.PagoRequest{Monto: dec("1.00")}}
	_, err := Ticket(venta, string([]byte{0}))
	assert.Error(t, err)
}
