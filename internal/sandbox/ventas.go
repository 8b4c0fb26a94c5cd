package sandbox

import (
	"fmt"
	"time"

	"mostrador/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ventaError distinguishes the rejection kinds so the handler can pick a
// status code.
type ventaError struct {
	status int
	msg    string
}

func (e *ventaError) Error() string { return e.msg }

// registrarVenta validates and applies one sale atomically under the store
// lock: resolve client and products, re-check stock against the live figures
// (the terminal only holds snapshots), verify payment sufficiency, decrement
// stock and regenerate stock alerts.
func (s *Store) registrarVenta(req model.RegistrarVentaRequest) (*model.VentaResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, &ventaError{400, "cliente_id invalido"}
	}
	var cliente *model.Cliente
	for i := range s.clientes {
		if s.clientes[i].ID == clienteID {
			cliente = &s.clientes[i]
			break
		}
	}
	if cliente == nil {
		return nil, &ventaError{400, "cliente no encontrado"}
	}
	if req.TipoComprobante == model.ComprobanteFactura && cliente.TipoDocumento != model.DocumentoRUC {
		return nil, &ventaError{400, "una factura requiere un cliente con RUC"}
	}

	cien := decimal.NewFromInt(100)
	subtotal := decimal.Zero
	descuentoTotal := decimal.Zero
	items := make([]model.ItemVentaResponse, 0, len(req.Items))
	touched := make([]*model.Producto, 0, len(req.Items))

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, &ventaError{400, "producto_id invalido"}
		}
		var producto *model.Producto
		for i := range s.productos {
			if s.productos[i].ID == pid {
				producto = &s.productos[i]
				break
			}
		}
		if producto == nil {
			return nil, &ventaError{400, fmt.Sprintf("producto %s no encontrado", item.ProductoID)}
		}
		if !producto.Activo {
			return nil, &ventaError{409, fmt.Sprintf("el producto %s esta inactivo", producto.Nombre)}
		}
		if producto.StockActual < item.Cantidad {
			return nil, &ventaError{409, fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d",
				producto.Nombre, producto.StockActual, item.Cantidad)}
		}

		// Server price wins over whatever the terminal snapshotted.
		lineSubtotal := producto.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		lineDescuento := lineSubtotal.Mul(item.DescuentoPct).Div(cien)
		subtotal = subtotal.Add(lineSubtotal)
		descuentoTotal = descuentoTotal.Add(lineDescuento)

		items = append(items, model.ItemVentaResponse{
			Producto:       producto.Nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: producto.PrecioVenta,
			DescuentoPct:   item.DescuentoPct,
			Subtotal:       lineSubtotal.Sub(lineDescuento),
		})
		touched = append(touched, producto)
	}

	total := subtotal.Sub(descuentoTotal)
	if req.Pago.Monto.LessThan(total) {
		return nil, &ventaError{400, "el monto recibido es insuficiente"}
	}

	// All checks passed — apply.
	for i, item := range req.Items {
		touched[i].StockActual -= item.Cantidad
		touched[i].UpdatedAt = time.Now()
		s.pushStockAlerta(touched[i])
	}
	s.ticketSeq++

	return &model.VentaResponse{
		ID:              uuid.New().String(),
		NumeroTicket:    s.ticketSeq,
		TipoComprobante: req.TipoComprobante,
		Cliente:         cliente.Nombre,
		Items:           items,
		Subtotal:        subtotal,
		DescuentoTotal:  descuentoTotal,
		Total:           total,
		Pago:            req.Pago,
		Vuelto:          req.Pago.Monto.Sub(total),
		CreatedAt:       time.Now().Format(time.RFC3339),
	}, nil
}
