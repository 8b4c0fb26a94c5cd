// Package receipt renders the thermal-style ticket printed after a completed
// sale. 74×105mm, close to receipt paper: header with the fiscal-document
// kind (BOLETA / FACTURA), item table, discount line, bold total, payment and
// change.
package receipt

import (
	"fmt"
	"os"
	"path/filepath"

	"mostrador/internal/model"

	"github.com/go-pdf/fpdf"
)

// Ticket writes the PDF for a completed sale into dir (created if needed) and
// returns the file path.
func Ticket(venta *model.VentaResponse, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("receipt: create dir: %w", err)
	}
	filePath := filepath.Join(dir, fmt.Sprintf("ticket_%d.pdf", venta.NumeroTicket))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Mostrador", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, string(venta.TipoComprobante)+" DE VENTA", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket N° %d", venta.NumeroTicket), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Cliente: "+venta.Cliente, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, venta.CreatedAt, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := item.Producto
		if r := []rune(nombre); len(r) > 22 {
			nombre = string(r[:21]) + "…"
		}
		pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "S/ "+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	if !venta.DescuentoTotal.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-S/ "+venta.DescuentoTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "S/ "+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Pago ("+string(venta.Pago.Metodo)+"):", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, "S/ "+venta.Pago.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	if !venta.Vuelto.IsZero() {
		pdf.CellFormat(col1+col2, 4, "Vuelto:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "S/ "+venta.Vuelto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "¡Gracias por su compra!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("receipt: write file: %w", err)
	}
	return filePath, nil
}
