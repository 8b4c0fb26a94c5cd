package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mostrador/internal/alerts"
	"mostrador/internal/api"
	"mostrador/internal/cart"
	"mostrador/internal/catalog"
	"mostrador/internal/config"
	"mostrador/internal/format"
	"mostrador/internal/model"
	"mostrador/internal/receipt"
	"mostrador/internal/session"
	"mostrador/internal/sound"
	"mostrador/internal/table"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// terminal bundles everything the command loop operates on.
type terminal struct {
	sess      *session.Manager
	productos *catalog.Productos
	clientes  *catalog.Clientes
	alertas   *alerts.Store
	checkout  *cart.Checkout
	busqueda  *table.Table[model.Producto]
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := session.NewManager()
	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, sess)
	sess.Bind(client)

	// Product lookup cache is opt-in: without REDIS_URL every scan hits the API.
	var cache *catalog.ProductoCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		cache = catalog.NewProductoCache(redis.NewClient(opts), cfg.ProductoCacheTTL)
		log.Info().Msg("cache de productos habilitado")
	}

	productos := catalog.NewProductos(client, cache)
	clientes := catalog.NewClientes(client)

	var snd sound.Sounder = sound.Nop{}
	if cfg.SoundEnabled {
		snd = &sound.Bell{Out: os.Stdout, Enabled: true}
	}

	alertStore := alerts.NewStore(alerts.NewBackend(client), sess, snd, cfg.AlertPollInterval)
	sess.OnChange(func(authenticated bool) {
		if authenticated {
			alertStore.StartPolling(ctx)
		} else {
			alertStore.StopPolling()
		}
	})

	carrito := cart.New()
	checkout := cart.NewCheckout(carrito, cart.NewSalesAPI(client), sess, cfg.CompletedReset)
	checkout.OnCompleted(func(venta *model.VentaResponse) {
		path, err := receipt.Ticket(venta, cfg.TicketDir)
		if err != nil {
			log.Error().Err(err).Int("ticket", venta.NumeroTicket).Msg("no se pudo generar el ticket")
			return
		}
		fmt.Printf("ticket %d guardado en %s\n", venta.NumeroTicket, path)
	})

	t := &terminal{
		sess:      sess,
		productos: productos,
		clientes:  clientes,
		alertas:   alertStore,
		checkout:  checkout,
		busqueda:  newBusqueda(productos, cfg.DefaultPageSize),
	}

	fmt.Println("Mostrador — terminal de ventas. Escriba 'ayuda' para ver los comandos.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "salir" {
			break
		}
		t.dispatch(ctx, args)
	}

	sess.Logout()
}

// newBusqueda builds the product search table the 'buscar' command drives.
func newBusqueda(productos *catalog.Productos, pageSize int) *table.Table[model.Producto] {
	fetch := func(ctx context.Context, q table.Query) (table.Page[model.Producto], error) {
		resp, err := productos.Buscar(ctx, q.Search, q.Page, q.PageSize, q.SortField, string(q.SortDirection))
		if err != nil {
			return table.Page[model.Producto]{}, err
		}
		totalPages := int((resp.Total + int64(q.PageSize) - 1) / int64(q.PageSize))
		return table.Page[model.Producto]{
			Rows:          resp.Data,
			TotalElements: resp.Total,
			TotalPages:    totalPages,
		}, nil
	}
	return table.New(fetch,
		table.WithPageSize[model.Producto](pageSize),
		table.WithEmptyText[model.Producto]("No se encontraron productos"),
		table.WithColumns(
			table.Column[model.Producto]{Key: "codigo_barras", Label: "Codigo"},
			table.Column[model.Producto]{Key: "nombre", Label: "Producto", Sortable: true},
			table.Column[model.Producto]{Key: "precio_venta", Label: "Precio", Sortable: true,
				Render: func(p model.Producto) string { return format.Currency(p.PrecioVenta) }},
			table.Column[model.Producto]{Key: "stock_actual", Label: "Stock", Sortable: true,
				Render: func(p model.Producto) string { return strconv.Itoa(p.StockActual) }},
		),
	)
}

func (t *terminal) dispatch(ctx context.Context, args []string) {
	var err error
	switch args[0] {
	case "ayuda":
		printAyuda()
	case "login":
		err = t.cmdLogin(ctx, args[1:])
	case "logout":
		t.sess.Logout()
	case "scan":
		err = t.cmdScan(ctx, args[1:])
	case "buscar":
		err = t.cmdBuscar(ctx, strings.Join(args[1:], " "))
	case "pagina":
		err = t.cmdPagina(ctx, args[1:])
	case "orden":
		err = t.cmdOrden(ctx, args[1:])
	case "agregar":
		err = t.cmdAgregar(args[1:])
	case "carrito":
		t.printCarrito()
	case "cantidad":
		err = t.cmdCantidad(args[1:])
	case "descuento":
		err = t.cmdDescuento(args[1:])
	case "quitar":
		err = t.cmdQuitar(args[1:])
	case "cliente":
		err = t.cmdCliente(ctx, args[1:])
	case "pagar":
		err = t.cmdPagar()
	case "metodo":
		err = t.cmdMetodo(args[1:])
	case "recibido":
		err = t.cmdRecibido(args[1:])
	case "comprobante":
		err = t.cmdComprobante(args[1:])
	case "cobrar":
		err = t.cmdCobrar(ctx)
	case "cancelar":
		t.checkout.Cancel()
	case "alertas":
		err = t.cmdAlertas(ctx)
	case "leida":
		err = t.cmdLeida(ctx, args[1:])
	case "leidas":
		err = t.alertas.MarkAllAsRead(ctx)
	case "borrar":
		err = t.cmdBorrar(ctx, args[1:])
	default:
		fmt.Println("comando desconocido; escriba 'ayuda'")
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

func printAyuda() {
	fmt.Print(`Comandos:
  login <usuario> <clave>     iniciar sesion
  logout                      cerrar sesion
  scan <codigo>               agregar producto por codigo de barras
  buscar <texto>              buscar productos
  pagina <n>                  cambiar de pagina (desde 0)
  orden <campo>               alternar orden por columna
  agregar <fila>              agregar producto listado al carrito
  carrito                     ver el carrito
  cantidad <fila> <n>         cambiar cantidad de una linea
  descuento <fila> <pct>      descuento por linea (0-50)
  quitar <fila>               quitar una linea
  cliente <dni|ruc>           asociar cliente por documento
  pagar                       pasar a pago
  metodo <efectivo|tarjeta|yape|transferencia>
  recibido <monto>            monto recibido (efectivo)
  comprobante <boleta|factura>
  cobrar                      registrar la venta
  cancelar                    volver al carrito
  alertas                     listar alertas de stock
  leida <fila> / leidas       marcar alertas como leidas
  borrar <fila>               eliminar una alerta
  salir
`)
}

// ── Sesion ───────────────────────────────────────────────────────────────────

func (t *terminal) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("uso: login <usuario> <clave>")
	}
	id, err := t.sess.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("bienvenida/o %s (%s)\n", id.Nombre, id.Rol)
	return nil
}

// ── Catalogo ─────────────────────────────────────────────────────────────────

func (t *terminal) cmdScan(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: scan <codigo>")
	}
	p, err := t.productos.PorCodigo(ctx, args[0])
	if err != nil {
		return err
	}
	if err := t.checkout.Cart().Add(p); err != nil {
		return err
	}
	fmt.Printf("+ %s  %s\n", p.Nombre, format.Currency(p.PrecioVenta))
	t.printTotales()
	return nil
}

func (t *terminal) cmdBuscar(ctx context.Context, q string) error {
	if err := t.busqueda.SetSearch(ctx, q); err != nil {
		return err
	}
	t.printBusqueda()
	return nil
}

func (t *terminal) cmdPagina(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: pagina <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("pagina invalida")
	}
	if err := t.busqueda.SetPage(ctx, n); err != nil {
		return err
	}
	t.printBusqueda()
	return nil
}

func (t *terminal) cmdOrden(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: orden <campo>")
	}
	if err := t.busqueda.ToggleSort(ctx, args[0]); err != nil {
		return err
	}
	t.printBusqueda()
	return nil
}

func (t *terminal) cmdAgregar(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: agregar <fila>")
	}
	i, err := strconv.Atoi(args[0])
	rows := t.busqueda.Rows()
	if err != nil || i < 0 || i >= len(rows) {
		return fmt.Errorf("fila invalida")
	}
	p := rows[i]
	if err := t.checkout.Cart().Add(&p); err != nil {
		return err
	}
	t.printTotales()
	return nil
}

func (t *terminal) printBusqueda() {
	if t.busqueda.State() == table.StateError {
		fmt.Println("error:", t.busqueda.Err())
		return
	}
	rows := t.busqueda.Rows()
	if len(rows) == 0 {
		fmt.Println(t.busqueda.EmptyText())
		return
	}
	for i, p := range rows {
		fmt.Printf("%2d  %-14s %-30s %10s  stock %d\n",
			i, p.CodigoBarras, p.Nombre, format.Currency(p.PrecioVenta), p.StockActual)
	}
	q := t.busqueda.Query()
	fmt.Printf("pagina %d de %d (%d productos)\n", q.Page+1, t.busqueda.TotalPages(), t.busqueda.TotalElements())
}

// ── Carrito ──────────────────────────────────────────────────────────────────

func (t *terminal) lineAt(arg string) (*cart.Line, error) {
	i, err := strconv.Atoi(arg)
	lines := t.checkout.Cart().Lines()
	if err != nil || i < 0 || i >= len(lines) {
		return nil, fmt.Errorf("fila invalida")
	}
	l := lines[i]
	return &l, nil
}

func (t *terminal) cmdCantidad(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("uso: cantidad <fila> <n>")
	}
	l, err := t.lineAt(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("cantidad invalida")
	}
	if err := t.checkout.Cart().UpdateQuantity(l.ProductoID, n); err != nil {
		return err
	}
	t.printTotales()
	return nil
}

func (t *terminal) cmdDescuento(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("uso: descuento <fila> <pct>")
	}
	l, err := t.lineAt(args[0])
	if err != nil {
		return err
	}
	pct, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("porcentaje invalido")
	}
	if err := t.checkout.Cart().UpdateDiscount(l.ProductoID, pct); err != nil {
		return err
	}
	t.printTotales()
	return nil
}

func (t *terminal) cmdQuitar(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: quitar <fila>")
	}
	l, err := t.lineAt(args[0])
	if err != nil {
		return err
	}
	if err := t.checkout.Cart().Remove(l.ProductoID); err != nil {
		return err
	}
	t.printTotales()
	return nil
}

func (t *terminal) printCarrito() {
	c := t.checkout.Cart()
	if c.IsEmpty() {
		fmt.Println("carrito vacio")
		return
	}
	for i, l := range c.Lines() {
		desc := ""
		if !l.DescuentoPct.IsZero() {
			desc = fmt.Sprintf("  -%s%%", l.DescuentoPct.StringFixed(0))
		}
		fmt.Printf("%2d  %-30s x%-3d %10s%s\n", i, l.Nombre, l.Cantidad, format.Currency(l.Subtotal()), desc)
	}
	if cl := c.Cliente(); cl != nil {
		fmt.Printf("cliente: %s (%s)\n", cl.Nombre, cl.NumeroDocumento)
	}
	t.printTotales()
}

func (t *terminal) printTotales() {
	tot := t.checkout.Cart().Totals()
	if !tot.Descuento.IsZero() {
		fmt.Printf("subtotal %s  descuento %s  TOTAL %s\n",
			format.Currency(tot.Subtotal), format.Currency(tot.Descuento), format.Currency(tot.Total))
		return
	}
	fmt.Printf("TOTAL %s\n", format.Currency(tot.Total))
}

func (t *terminal) cmdCliente(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: cliente <dni|ruc>")
	}
	cl, err := t.clientes.PorDocumento(ctx, args[0])
	if err != nil {
		return err
	}
	t.checkout.Cart().AttachCliente(cl)
	fmt.Printf("cliente: %s (%s %s)\n", cl.Nombre, cl.TipoDocumento, cl.NumeroDocumento)
	return nil
}

// ── Pago ─────────────────────────────────────────────────────────────────────

func (t *terminal) cmdPagar() error {
	if err := t.checkout.OpenPayment(); err != nil {
		return err
	}
	p := t.checkout.Pago()
	fmt.Printf("pago: %s, %s, recibido %s\n", p.Metodo, p.TipoComprobante, format.Currency(p.MontoRecibido))
	return nil
}

func (t *terminal) cmdMetodo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: metodo <efectivo|tarjeta|yape|transferencia>")
	}
	p := t.checkout.Pago()
	p.Metodo = model.MetodoPago(args[0])
	return t.checkout.SetPago(p)
}

func (t *terminal) cmdRecibido(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: recibido <monto>")
	}
	monto, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("monto invalido")
	}
	p := t.checkout.Pago()
	p.MontoRecibido = monto
	return t.checkout.SetPago(p)
}

func (t *terminal) cmdComprobante(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: comprobante <boleta|factura>")
	}
	p := t.checkout.Pago()
	p.TipoComprobante = model.TipoComprobante(strings.ToUpper(args[0]))
	return t.checkout.SetPago(p)
}

func (t *terminal) cmdCobrar(ctx context.Context) error {
	venta, err := t.checkout.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("venta %d registrada, total %s", venta.NumeroTicket, format.Currency(venta.Total))
	if !venta.Vuelto.IsZero() {
		fmt.Printf(", vuelto %s", format.Currency(venta.Vuelto))
	}
	fmt.Println()
	return nil
}

// ── Alertas ──────────────────────────────────────────────────────────────────

func (t *terminal) cmdAlertas(ctx context.Context) error {
	if err := t.alertas.Refresh(ctx); err != nil {
		return err
	}
	items := t.alertas.Items()
	if len(items) == 0 {
		fmt.Println("sin alertas")
		return nil
	}
	for i, a := range items {
		marca := " "
		if !a.Leida {
			marca = "*"
		}
		fmt.Printf("%2d %s [%s] %s  %s\n", i, marca, a.Urgencia, a.Mensaje, format.DateTime(a.CreatedAt))
	}
	fmt.Printf("%d sin leer\n", t.alertas.UnreadCount())
	if t.alertas.Suspended() {
		fmt.Println("sondeo suspendido por fallas consecutivas; vuelva a iniciar sesion para reanudarlo")
	}
	return nil
}

func (t *terminal) alertAt(arg string) (*model.Alerta, error) {
	i, err := strconv.Atoi(arg)
	items := t.alertas.Items()
	if err != nil || i < 0 || i >= len(items) {
		return nil, fmt.Errorf("fila invalida")
	}
	a := items[i]
	return &a, nil
}

func (t *terminal) cmdLeida(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: leida <fila>")
	}
	a, err := t.alertAt(args[0])
	if err != nil {
		return err
	}
	return t.alertas.MarkAsRead(ctx, a.ID)
}

func (t *terminal) cmdBorrar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: borrar <fila>")
	}
	a, err := t.alertAt(args[0])
	if err != nil {
		return err
	}
	return t.alertas.Delete(ctx, a.ID)
}
