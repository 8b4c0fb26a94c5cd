// Package cart implements the in-memory sales cart and the checkout workflow
// of the terminal. The cart is scoped to one checkout screen: it is never
// shared or persisted, and discarding it loses everything by design.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"mostrador/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCarritoVacio      = errors.New("el carrito esta vacio")
	ErrSinCliente        = errors.New("debe seleccionar un cliente")
	ErrPagoInsuficiente  = errors.New("el monto recibido es insuficiente")
	ErrDescuentoInvalido = errors.New("el descuento debe estar entre 0 y 50 por ciento")
	ErrLineaNoEncontrada = errors.New("el producto no esta en el carrito")
)

// StockError signals that an add or quantity edit would exceed the stock
// snapshot taken when the product entered the cart.
type StockError struct {
	Nombre     string
	Codigo     string
	Disponible int
	Solicitado int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d",
		e.Nombre, e.Disponible, e.Solicitado)
}

// maxDescuento is the per-line discount ceiling, in percent.
var maxDescuento = decimal.NewFromInt(50)

// Line is one product entry in the in-progress sale. StockDisponible is the
// snapshot at add time; it is not re-validated against the server until
// checkout, when the backend has the final word.
type Line struct {
	ProductoID      uuid.UUID
	Codigo          string
	Nombre          string
	PrecioUnitario  decimal.Decimal
	Cantidad        int
	DescuentoPct    decimal.Decimal
	StockDisponible int
}

// Subtotal is the line amount before discount.
func (l Line) Subtotal() decimal.Decimal {
	return l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}

// Descuento is the discounted amount of the line.
func (l Line) Descuento() decimal.Decimal {
	return l.Subtotal().Mul(l.DescuentoPct).Div(decimal.NewFromInt(100))
}

// Totals are derived on every read, never stored.
type Totals struct {
	Subtotal  decimal.Decimal
	Descuento decimal.Decimal
	Total     decimal.Decimal
}

// Cart is an ordered collection of lines plus an optional attached client
// reference. No two lines share a product: re-adding increments quantity.
type Cart struct {
	mu      sync.Mutex
	lines   []Line
	cliente *model.Cliente
}

func New() *Cart {
	return &Cart{}
}

// Add puts a product in the cart or increments its existing line. The
// increment is rejected — cart unchanged — when it would exceed the stock
// snapshot; a new line requires at least one unit in stock.
func (c *Cart) Add(p *model.Producto) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductoID == p.ID {
			if c.lines[i].Cantidad+1 > c.lines[i].StockDisponible {
				return &StockError{
					Nombre:     c.lines[i].Nombre,
					Codigo:     c.lines[i].Codigo,
					Disponible: c.lines[i].StockDisponible,
					Solicitado: c.lines[i].Cantidad + 1,
				}
			}
			c.lines[i].Cantidad++
			return nil
		}
	}

	if p.StockActual < 1 {
		return &StockError{Nombre: p.Nombre, Codigo: p.CodigoBarras, Disponible: p.StockActual, Solicitado: 1}
	}
	c.lines = append(c.lines, Line{
		ProductoID:      p.ID,
		Codigo:          p.CodigoBarras,
		Nombre:          p.Nombre,
		PrecioUnitario:  p.PrecioVenta,
		Cantidad:        1,
		DescuentoPct:    decimal.Zero,
		StockDisponible: p.StockActual,
	})
	return nil
}

// UpdateQuantity sets a line's quantity. Below 1 removes the line; above the
// stock snapshot the edit is rejected and the line keeps its previous value —
// never clamped silently.
func (c *Cart) UpdateQuantity(productoID uuid.UUID, cantidad int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductoID != productoID {
			continue
		}
		if cantidad < 1 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		if cantidad > c.lines[i].StockDisponible {
			return &StockError{
				Nombre:     c.lines[i].Nombre,
				Codigo:     c.lines[i].Codigo,
				Disponible: c.lines[i].StockDisponible,
				Solicitado: cantidad,
			}
		}
		c.lines[i].Cantidad = cantidad
		return nil
	}
	return ErrLineaNoEncontrada
}

// UpdateDiscount overwrites a line's discount percentage, valid in [0, 50].
func (c *Cart) UpdateDiscount(productoID uuid.UUID, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(maxDescuento) {
		return ErrDescuentoInvalido
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductoID == productoID {
			c.lines[i].DescuentoPct = pct
			return nil
		}
	}
	return ErrLineaNoEncontrada
}

// Remove deletes a line outright.
func (c *Cart) Remove(productoID uuid.UUID) error {
	return c.UpdateQuantity(productoID, 0)
}

// Clear discards every line and the attached client.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.cliente = nil
}

// AttachCliente holds a client by reference. The cart never mutates it.
func (c *Cart) AttachCliente(cliente *model.Cliente) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cliente = cliente
}

func (c *Cart) Cliente() *model.Cliente {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cliente
}

// Lines returns a copy of the cart lines, in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Totals derives subtotal, total discount and total. Pure: no side effects,
// computed from the lines on every call.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	subtotal := decimal.Zero
	descuento := decimal.Zero
	for i := range c.lines {
		subtotal = subtotal.Add(c.lines[i].Subtotal())
		descuento = descuento.Add(c.lines[i].Descuento())
	}
	return Totals{
		Subtotal:  subtotal,
		Descuento: descuento,
		Total:     subtotal.Sub(descuento),
	}
}
