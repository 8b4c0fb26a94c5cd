package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"mostrador/internal/model"
	"mostrador/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubSales struct {
	resp *model.VentaResponse
	err  error
	reqs []model.RegistrarVentaRequest
}

func (s *stubSales) RegistrarVenta(_ context.Context, req model.RegistrarVentaRequest) (*model.VentaResponse, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubIdentity struct {
	id  *session.Identity
	err error
}

func (s *stubIdentity) Current() (*session.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.id, nil
}

func cajera() *stubIdentity {
	return &stubIdentity{id: &session.Identity{
		UserID:   uuid.New(),
		Username: "cajera",
		Nombre:   "Maria Quispe",
		Rol:      "vendedor",
	}}
}

func clienteDNI() *model.Cliente {
	return &model.Cliente{
		ID:              uuid.New(),
		TipoDocumento:   model.DocumentoDNI,
		NumeroDocumento: "45678912",
		Nombre:          "Jorge Mamani",
	}
}

func clienteRUC() *model.Cliente {
	return &model.Cliente{
		ID:              uuid.New(),
		TipoDocumento:   model.DocumentoRUC,
		NumeroDocumento: "20100070970",
		Nombre:          "Bodega San Martin SAC",
	}
}

func ventaOK() *model.VentaResponse {
	return &model.VentaResponse{
		ID:           uuid.New().String(),
		NumeroTicket: 123,
		Total:        decimal.RequireFromString("180"),
		Vuelto:       decimal.RequireFromString("20"),
	}
}

// armarCarrito returns a checkout in StatePayment with one line of 2 x 100.00
// al 10% de descuento (total 180) and the given client attached.
func armarCarrito(t *testing.T, sales SalesAPI, identity IdentityProvider, cliente *model.Cliente) *Checkout {
	t.Helper()
	c := New()
	p := producto("Aceite", "100.00", 10)
	require.NoError(t, c.Add(p))
	require.NoError(t, c.UpdateQuantity(p.ID, 2))
	require.NoError(t, c.UpdateDiscount(p.ID, decimal.NewFromInt(10)))
	c.AttachCliente(cliente)

	ck := NewCheckout(c, sales, identity, time.Hour)
	require.NoError(t, ck.OpenPayment())
	return ck
}

// ── Preconditions ────────────────────────────────────────────────────────────

func TestSubmitCarritoVacio(t *testing.T) {
	ck := NewCheckout(New(), &stubSales{}, cajera(), 0)
	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrCarritoVacio)
}

func TestSubmitSinCliente(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(producto("Pan", "0.50", 5)))
	ck := NewCheckout(c, &stubSales{}, cajera(), 0)
	require.NoError(t, ck.OpenPayment())

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSinCliente)
}

func TestSubmitSinSesion(t *testing.T) {
	sales := &stubSales{}
	ck := armarCarrito(t, sales, &stubIdentity{err: session.ErrNoAutenticado}, clienteDNI())

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, session.ErrNoAutenticado)
	assert.Empty(t, sales.reqs, "no debe llegar al backend")
}

func TestSubmitSinCapturaDePago(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(producto("Pan", "0.50", 5)))
	c.AttachCliente(clienteDNI())
	sales := &stubSales{}
	ck := NewCheckout(c, sales, cajera(), 0)

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSinCapturaDePago)
	assert.Empty(t, sales.reqs)
}

func TestSubmitPagoInsuficiente(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	ck := armarCarrito(t, sales, cajera(), clienteDNI())

	p := ck.Pago()
	p.MontoRecibido = decimal.RequireFromString("179.99")
	require.NoError(t, ck.SetPago(p))

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrPagoInsuficiente)
	assert.Empty(t, sales.reqs)
}

func TestSubmitFacturaRequiereRUC(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	ck := armarCarrito(t, sales, cajera(), clienteDNI())

	p := ck.Pago()
	p.TipoComprobante = model.ComprobanteFactura
	require.NoError(t, ck.SetPago(p))

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFacturaRequiereRUC)
	assert.Empty(t, sales.reqs)
}

func TestSubmitFacturaConRUC(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	ck := armarCarrito(t, sales, cajera(), clienteRUC())

	p := ck.Pago()
	p.TipoComprobante = model.ComprobanteFactura
	require.NoError(t, ck.SetPago(p))

	_, err := ck.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, sales.reqs, 1)
	assert.Equal(t, model.ComprobanteFactura, sales.reqs[0].TipoComprobante)
}

// ── Flujo ────────────────────────────────────────────────────────────────────

func TestOpenPaymentPrecargaMonto(t *testing.T) {
	ck := armarCarrito(t, &stubSales{}, cajera(), clienteDNI())

	p := ck.Pago()
	assert.Equal(t, model.PagoEfectivo, p.Metodo)
	assert.Equal(t, model.ComprobanteBoleta, p.TipoComprobante)
	assert.True(t, p.MontoRecibido.Equal(decimal.RequireFromString("180")), "monto precargado %s", p.MontoRecibido)
}

func TestVueltoCalculado(t *testing.T) {
	p := Pago{MontoRecibido: decimal.RequireFromString("200")}
	total := decimal.RequireFromString("180")
	assert.True(t, p.Vuelto(total).Equal(decimal.RequireFromString("20")))

	exacto := Pago{MontoRecibido: total}
	assert.True(t, exacto.Vuelto(total).IsZero())
}

func TestSubmitExitoso(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	ck := armarCarrito(t, sales, cajera(), clienteDNI())

	var hookVenta *model.VentaResponse
	ck.OnCompleted(func(v *model.VentaResponse) { hookVenta = v })

	p := ck.Pago()
	p.MontoRecibido = decimal.RequireFromString("200")
	require.NoError(t, ck.SetPago(p))

	venta, err := ck.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 123, venta.NumeroTicket)
	assert.Equal(t, StateCompleted, ck.State())
	assert.Same(t, venta, hookVenta, "el hook recibe la misma venta")

	// El request lleva las lineas y el pago capturado.
	require.Len(t, sales.reqs, 1)
	req := sales.reqs[0]
	require.Len(t, req.Items, 1)
	assert.Equal(t, 2, req.Items[0].Cantidad)
	assert.True(t, req.Pago.Monto.Equal(decimal.RequireFromString("200")))
}

func TestSubmitDobleTrasCompletado(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	ck := armarCarrito(t, sales, cajera(), clienteDNI())

	_, err := ck.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, ck.State())

	// La confirmacion sigue en pantalla y el carrito aun no se vacio;
	// reenviar no debe generar otra venta.
	_, err = ck.Submit(context.Background())
	assert.ErrorIs(t, err, ErrVentaYaRegistrada)
	assert.Len(t, sales.reqs, 1, "la venta se registra una sola vez")

	// Tampoco se puede reabrir la captura de pago sobre la venta cerrada.
	assert.ErrorIs(t, ck.OpenPayment(), ErrVentaYaRegistrada)
}

func TestSubmitRechazadoVuelveAPago(t *testing.T) {
	rechazo := errors.New("stock insuficiente para Aceite: disponible 1, solicitado 2")
	sales := &stubSales{err: rechazo}
	ck := armarCarrito(t, sales, cajera(), clienteDNI())

	_, err := ck.Submit(context.Background())
	assert.ErrorIs(t, err, rechazo)
	assert.Equal(t, StatePayment, ck.State(), "permanece en captura de pago")
	assert.False(t, ck.Cart().IsEmpty(), "el carrito se conserva para decidir")
}

func TestCompletadoRevierteTrasEspera(t *testing.T) {
	sales := &stubSales{resp: ventaOK()}
	c := New()
	p := producto("Cafe", "15.00", 5)
	require.NoError(t, c.Add(p))
	c.AttachCliente(clienteDNI())

	ck := NewCheckout(c, sales, cajera(), 20*time.Millisecond)
	require.NoError(t, ck.OpenPayment())

	_, err := ck.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, ck.State())

	assert.Eventually(t, func() bool {
		return ck.State() == StateBuilding && ck.Cart().IsEmpty()
	}, time.Second, 5*time.Millisecond, "vuelve a un carrito nuevo")
	assert.Nil(t, ck.Venta())
}

func TestCancelDescartaTodo(t *testing.T) {
	ck := armarCarrito(t, &stubSales{}, cajera(), clienteDNI())

	ck.Cancel()
	assert.Equal(t, StateBuilding, ck.State())
	assert.True(t, ck.Cart().IsEmpty())
	assert.Nil(t, ck.Cart().Cliente())
}
