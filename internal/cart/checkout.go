package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"mostrador/internal/model"
	"mostrador/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEnvioEnCurso       = errors.New("la venta ya se esta enviando")
	ErrVentaYaRegistrada  = errors.New("la venta ya fue registrada")
	ErrSinCapturaDePago   = errors.New("no hay captura de pago en curso")
	ErrFacturaRequiereRUC = errors.New("una factura requiere un cliente con RUC")
)

// State is the checkout screen's lifecycle. Completed auto-reverts to a fresh
// Building after a fixed delay so the operator sees the confirmation before
// the next sale starts.
type State int

const (
	StateBuilding State = iota
	StatePayment
	StateSubmitting
	StateCompleted
)

// Pago is the transient payment capture during checkout.
type Pago struct {
	Metodo          model.MetodoPago
	TipoComprobante model.TipoComprobante
	MontoRecibido   decimal.Decimal
}

// Vuelto is the change due: max(0, recibido − total).
func (p Pago) Vuelto(total decimal.Decimal) decimal.Decimal {
	v := p.MontoRecibido.Sub(total)
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// SalesAPI submits the finalized transaction. The production implementation
// lives in sales.go.
type SalesAPI interface {
	RegistrarVenta(ctx context.Context, req model.RegistrarVentaRequest) (*model.VentaResponse, error)
}

// IdentityProvider is satisfied by the session manager.
type IdentityProvider interface {
	Current() (*session.Identity, error)
}

// Checkout drives a cart through payment capture into exactly one submitted
// sale. A server rejection leaves it in StatePayment with the server's
// message surfaced verbatim; nothing is retried automatically.
type Checkout struct {
	cart     *Cart
	sales    SalesAPI
	identity IdentityProvider

	mu          sync.Mutex
	state       State
	pago        Pago
	venta       *model.VentaResponse
	resetDelay  time.Duration
	resetTimer  *time.Timer
	onCompleted func(*model.VentaResponse)
}

// NewCheckout wires the workflow. resetDelay is how long Completed is shown
// before reverting to a fresh Building state.
func NewCheckout(c *Cart, sales SalesAPI, identity IdentityProvider, resetDelay time.Duration) *Checkout {
	if resetDelay <= 0 {
		resetDelay = 4 * time.Second
	}
	return &Checkout{
		cart:       c,
		sales:      sales,
		identity:   identity,
		state:      StateBuilding,
		resetDelay: resetDelay,
	}
}

// OnCompleted registers a hook fired once per completed sale (ticket
// printing). Must be set before the first Submit.
func (ck *Checkout) OnCompleted(fn func(*model.VentaResponse)) {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	ck.onCompleted = fn
}

func (ck *Checkout) Cart() *Cart { return ck.cart }

func (ck *Checkout) State() State {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.state
}

// Venta returns the server response of the completed sale, if any.
func (ck *Checkout) Venta() *model.VentaResponse {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.venta
}

func (ck *Checkout) Pago() Pago {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.pago
}

// OpenPayment enters payment capture. Requires a non-empty cart; the tendered
// amount is pre-filled with the current total and stays editable.
func (ck *Checkout) OpenPayment() error {
	if ck.cart.IsEmpty() {
		return ErrCarritoVacio
	}
	ck.mu.Lock()
	defer ck.mu.Unlock()
	if ck.state == StateSubmitting {
		return ErrEnvioEnCurso
	}
	if ck.state == StateCompleted {
		return ErrVentaYaRegistrada
	}
	ck.state = StatePayment
	ck.pago = Pago{
		Metodo:          model.PagoEfectivo,
		TipoComprobante: model.ComprobanteBoleta,
		MontoRecibido:   ck.cart.Totals().Total,
	}
	return nil
}

// SetPago overwrites the captured payment while in StatePayment.
func (ck *Checkout) SetPago(p Pago) error {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	if ck.state != StatePayment {
		return ErrSinCapturaDePago
	}
	ck.pago = p
	return nil
}

// Submit validates preconditions and posts the sale. Each precondition is
// reported as its own error, raised before any network call: empty cart,
// missing client, missing identity, insufficient payment, FACTURA without
// RUC. It only runs from StatePayment; a completed sale cannot be sent
// again while the confirmation is on screen. On success the workflow holds
// the server-assigned sale and schedules the auto-revert; on any rejection
// it stays in StatePayment.
func (ck *Checkout) Submit(ctx context.Context) (*model.VentaResponse, error) {
	if ck.cart.IsEmpty() {
		return nil, ErrCarritoVacio
	}
	cliente := ck.cart.Cliente()
	if cliente == nil || cliente.ID == uuid.Nil {
		return nil, ErrSinCliente
	}
	if _, err := ck.identity.Current(); err != nil {
		return nil, err
	}

	ck.mu.Lock()
	switch ck.state {
	case StateSubmitting:
		ck.mu.Unlock()
		return nil, ErrEnvioEnCurso
	case StateCompleted:
		ck.mu.Unlock()
		return nil, ErrVentaYaRegistrada
	case StateBuilding:
		ck.mu.Unlock()
		return nil, ErrSinCapturaDePago
	}
	pago := ck.pago
	ck.state = StateSubmitting
	ck.mu.Unlock()

	totals := ck.cart.Totals()
	if pago.MontoRecibido.LessThan(totals.Total) {
		ck.backToPayment()
		return nil, ErrPagoInsuficiente
	}
	if pago.TipoComprobante == model.ComprobanteFactura && cliente.TipoDocumento != model.DocumentoRUC {
		ck.backToPayment()
		return nil, ErrFacturaRequiereRUC
	}

	lines := ck.cart.Lines()
	req := model.RegistrarVentaRequest{
		ClienteID:       cliente.ID.String(),
		TipoComprobante: pago.TipoComprobante,
		Items:           make([]model.ItemVentaRequest, 0, len(lines)),
		Pago: model.PagoRequest{
			Metodo: pago.Metodo,
			Monto:  pago.MontoRecibido,
		},
	}
	for _, l := range lines {
		req.Items = append(req.Items, model.ItemVentaRequest{
			ProductoID:     l.ProductoID.String(),
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			DescuentoPct:   l.DescuentoPct,
		})
	}

	venta, err := ck.sales.RegistrarVenta(ctx, req)
	if err != nil {
		// Server said no (stock may have changed under us). Stay in payment
		// capture so the operator decides; the message travels verbatim.
		ck.backToPayment()
		return nil, err
	}

	ck.mu.Lock()
	ck.state = StateCompleted
	ck.venta = venta
	hook := ck.onCompleted
	ck.resetTimer = time.AfterFunc(ck.resetDelay, ck.reset)
	ck.mu.Unlock()

	if hook != nil {
		hook(venta)
	}
	return venta, nil
}

func (ck *Checkout) backToPayment() {
	ck.mu.Lock()
	ck.state = StatePayment
	ck.mu.Unlock()
}

// Cancel discards the in-progress sale entirely: lines, client, payment.
// There is no draft or recovery.
func (ck *Checkout) Cancel() {
	ck.mu.Lock()
	if ck.resetTimer != nil {
		ck.resetTimer.Stop()
		ck.resetTimer = nil
	}
	ck.state = StateBuilding
	ck.pago = Pago{}
	ck.venta = nil
	ck.mu.Unlock()
	ck.cart.Clear()
}

// reset reverts Completed to a fresh Building state.
func (ck *Checkout) reset() {
	ck.mu.Lock()
	if ck.state != StateCompleted {
		ck.mu.Unlock()
		return
	}
	ck.state = StateBuilding
	ck.pago = Pago{}
	ck.venta = nil
	ck.resetTimer = nil
	ck.mu.Unlock()
	ck.cart.Clear()
}
