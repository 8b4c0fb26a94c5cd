// Package sandbox is an in-memory stand-in for the remote backend the
// terminal talks to: login, catalog, clients, sales and alerts behind the
// same routes and envelopes. It backs local development and the end-to-end
// suite; nothing survives a restart.
package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"

	"mostrador/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Usuario is a seeded operator account.
type Usuario struct {
	ID           uuid.UUID
	Username     string
	Nombre       string
	Rol          string
	PasswordHash string
}

// Store holds all sandbox state under one mutex.
type Store struct {
	mu        sync.Mutex
	usuarios  map[string]*Usuario
	productos []model.Producto
	clientes  []model.Cliente
	alertas   []model.Alerta
	ticketSeq int
}

// NewStore seeds a small but representative fixture set: one cashier, a
// handful of products around their stock minimums, two clients and a couple
// of alerts.
func NewStore() *Store {
	s := &Store{usuarios: map[string]*Usuario{}}
	s.seed()
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (s *Store) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte("mostrador"), 10)
	s.usuarios["cajera"] = &Usuario{
		ID:           uuid.New(),
		Username:     "cajera",
		Nombre:       "Maria Quispe",
		Rol:          "vendedor",
		PasswordHash: string(hash),
	}

	now := time.Now()
	s.productos = []model.Producto{
		{ID: uuid.New(), CodigoBarras: "7750100000011", Nombre: "Arroz Costeño 1kg", Categoria: "abarrotes", PrecioVenta: dec("4.50"), StockActual: 120, StockMinimo: 20, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000028", Nombre: "Aceite Primor 900ml", Categoria: "abarrotes", PrecioVenta: dec("9.80"), StockActual: 45, StockMinimo: 10, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000035", Nombre: "Leche Gloria 400g", Categoria: "lacteos", PrecioVenta: dec("3.90"), StockActual: 8, StockMinimo: 12, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000042", Nombre: "Gaseosa Inca Kola 1.5L", Categoria: "bebidas", PrecioVenta: dec("7.50"), StockActual: 60, StockMinimo: 15, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000059", Nombre: "Detergente Bolivar 780g", Categoria: "limpieza", PrecioVenta: dec("12.90"), StockActual: 2, StockMinimo: 8, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000066", Nombre: "Atun Florida 170g", Categoria: "abarrotes", PrecioVenta: dec("6.20"), StockActual: 30, StockMinimo: 10, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000073", Nombre: "Pan de molde Bimbo", Categoria: "panaderia", PrecioVenta: dec("8.40"), StockActual: 0, StockMinimo: 5, UnidadMedida: "unidad", Activo: true, UpdatedAt: now},
		{ID: uuid.New(), CodigoBarras: "7750100000080", Nombre: "Cerveza Pilsen 630ml", Categoria: "bebidas", PrecioVenta: dec("6.90"), StockActual: 72, StockMinimo: 24, UnidadMedida: "unidad", Activo: false, UpdatedAt: now},
	}

	s.clientes = []model.Cliente{
		{ID: uuid.New(), TipoDocumento: model.DocumentoDNI, NumeroDocumento: "45678912", Nombre: "Jorge Mamani", Telefono: "987654321", CreatedAt: now},
		{ID: uuid.New(), TipoDocumento: model.DocumentoRUC, NumeroDocumento: "20100070970", Nombre: "Bodega San Martin SAC", Email: "compras@sanmartin.pe", CreatedAt: now},
	}

	s.alertas = []model.Alerta{
		{
			ID: uuid.New(), Tipo: model.AlertaStockBajo, Urgencia: model.UrgenciaAlto,
			Mensaje:   "Stock bajo: Leche Gloria 400g (8/12)",
			CreatedAt: now.Add(-2 * time.Hour),
			Producto:  &model.AlertaProducto{Nombre: "Leche Gloria 400g", Codigo: "7750100000035", StockActual: 8, StockMinimo: 12},
		},
		{
			ID: uuid.New(), Tipo: model.AlertaStockCritico, Urgencia: model.UrgenciaCritico,
			Mensaje:   "Stock agotado: Pan de molde Bimbo",
			CreatedAt: now.Add(-30 * time.Minute),
			Producto:  &model.AlertaProducto{Nombre: "Pan de molde Bimbo", Codigo: "7750100000073", StockActual: 0, StockMinimo: 5},
		},
	}
}

// ── Lookups used by the handlers (caller must NOT hold the lock) ─────────────

func (s *Store) findUsuario(username string) *Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usuarios[username]
}

func (s *Store) productoPorCodigo(codigo string) *model.Producto {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.productos {
		if s.productos[i].CodigoBarras == codigo {
			p := s.productos[i]
			return &p
		}
	}
	return nil
}

func (s *Store) productoPorID(id uuid.UUID) *model.Producto {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.productos {
		if s.productos[i].ID == id {
			p := s.productos[i]
			return &p
		}
	}
	return nil
}

// buscarProductos filters, sorts and pages the catalog. page is 0-based, the
// same convention the table contract uses.
func (s *Store) buscarProductos(q, sortField, sortDir string, page, limit int) ([]model.Producto, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = strings.ToLower(q)
	matched := make([]model.Producto, 0, len(s.productos))
	for _, p := range s.productos {
		if q == "" || strings.Contains(strings.ToLower(p.Nombre), q) || strings.Contains(p.CodigoBarras, q) {
			matched = append(matched, p)
		}
	}

	if sortField != "" {
		desc := sortDir == "desc"
		sort.SliceStable(matched, func(i, j int) bool {
			var less bool
			switch sortField {
			case "precio_venta":
				less = matched[i].PrecioVenta.LessThan(matched[j].PrecioVenta)
			case "stock_actual":
				less = matched[i].StockActual < matched[j].StockActual
			default:
				less = matched[i].Nombre < matched[j].Nombre
			}
			if desc {
				return !less
			}
			return less
		})
	}

	total := int64(len(matched))
	start := page * limit
	if start >= len(matched) {
		return []model.Producto{}, total
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}

func (s *Store) buscarClientes(documento, q string, page, limit int) ([]model.Cliente, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Cliente, 0, len(s.clientes))
	for _, c := range s.clientes {
		switch {
		case documento != "":
			if c.NumeroDocumento == documento {
				matched = append(matched, c)
			}
		case q != "":
			if strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(q)) {
				matched = append(matched, c)
			}
		default:
			matched = append(matched, c)
		}
	}

	total := int64(len(matched))
	start := page * limit
	if start >= len(matched) {
		return []model.Cliente{}, total
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}

func (s *Store) crearCliente(req model.CrearClienteRequest) (*model.Cliente, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clientes {
		if c.NumeroDocumento == req.NumeroDocumento {
			return nil, false
		}
	}
	cliente := model.Cliente{
		ID:              uuid.New(),
		TipoDocumento:   req.TipoDocumento,
		NumeroDocumento: req.NumeroDocumento,
		Nombre:          req.Nombre,
		Telefono:        req.Telefono,
		Email:           req.Email,
		CreatedAt:       time.Now(),
	}
	s.clientes = append(s.clientes, cliente)
	return &cliente, true
}

func (s *Store) listAlertas() []model.Alerta {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.Alerta(nil), s.alertas...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) marcarAlertaLeida(id uuid.UUID, por string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alertas {
		if s.alertas[i].ID == id {
			if !s.alertas[i].Leida {
				s.alertas[i].Leida = true
				now := time.Now()
				s.alertas[i].LeidaEn = &now
				s.alertas[i].LeidaPor = &por
			}
			return true
		}
	}
	return false
}

func (s *Store) borrarAlerta(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alertas {
		if s.alertas[i].ID == id {
			s.alertas = append(s.alertas[:i], s.alertas[i+1:]...)
			return true
		}
	}
	return false
}

// pushStockAlerta appends a low/zero-stock alert unless an unread one of the
// same kind already exists for the product.
func (s *Store) pushStockAlerta(p *model.Producto) {
	var tipo model.TipoAlerta
	var urgencia model.Urgencia
	var mensaje string
	switch {
	case p.StockActual <= 0:
		tipo, urgencia = model.AlertaStockCritico, model.UrgenciaCritico
		mensaje = "Stock agotado: " + p.Nombre
	case p.StockActual <= p.StockMinimo:
		tipo, urgencia = model.AlertaStockBajo, model.UrgenciaAlto
		mensaje = "Stock bajo: " + p.Nombre
	default:
		return
	}

	for i := range s.alertas {
		if !s.alertas[i].Leida && s.alertas[i].Tipo == tipo &&
			s.alertas[i].Producto != nil && s.alertas[i].Producto.Codigo == p.CodigoBarras {
			s.alertas[i].Producto.StockActual = p.StockActual
			return
		}
	}
	s.alertas = append(s.alertas, model.Alerta{
		ID:        uuid.New(),
		Tipo:      tipo,
		Urgencia:  urgencia,
		Mensaje:   mensaje,
		CreatedAt: time.Now(),
		Producto: &model.AlertaProducto{
			Nombre:      p.Nombre,
			Codigo:      p.CodigoBarras,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
		},
	})
}
