// Package format holds the pure display-formatting and input-validation
// helpers consumed by every screen of the terminal: currency and timestamps
// for rendering, Peruvian document numbers (DNI/RUC) and phone numbers for
// client quick-create and lookup.
package format

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDNIInvalido      = errors.New("DNI invalido: debe tener 8 digitos")
	ErrRUCInvalido      = errors.New("RUC invalido")
	ErrTelefonoInvalido = errors.New("telefono invalido: debe tener 9 digitos y empezar con 9")
	ErrRangoPrecios     = errors.New("rango de precios invalido")
)

// Currency renders an amount as soles with two decimals and thousands
// separators: 1234.5 → "S/ 1,234.50".
func Currency(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("S/ ")
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// DateTime renders a timestamp the way tickets and alert rows show it.
func DateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ValidarDNI accepts exactly 8 digits.
func ValidarDNI(dni string) error {
	if len(dni) != 8 || !allDigits(dni) {
		return ErrDNIInvalido
	}
	return nil
}

// rucWeights are the SUNAT modulus-11 factors for the first ten digits.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidarRUC accepts an 11-digit RUC whose check digit satisfies the SUNAT
// modulus-11 algorithm. Leading pair must be a known taxpayer type.
func ValidarRUC(ruc string) error {
	if len(ruc) != 11 || !allDigits(ruc) {
		return ErrRUCInvalido
	}
	switch ruc[:2] {
	case "10", "15", "17", "20":
	default:
		return ErrRUCInvalido
	}
	sum := 0
	for i, w := range rucWeights {
		sum += int(ruc[i]-'0') * w
	}
	check := 11 - sum%11
	if check >= 10 {
		check -= 10
	}
	if check != int(ruc[10]-'0') {
		return ErrRUCInvalido
	}
	return nil
}

// ValidarDocumento dispatches on length: 8 digits → DNI, 11 digits → RUC.
func ValidarDocumento(doc string) error {
	switch len(doc) {
	case 8:
		return ValidarDNI(doc)
	case 11:
		return ValidarRUC(doc)
	default:
		return errors.New("documento invalido: se espera DNI (8 digitos) o RUC (11 digitos)")
	}
}

// ValidarTelefono accepts Peruvian mobile numbers: 9 digits, leading 9.
func ValidarTelefono(tel string) error {
	if len(tel) != 9 || !allDigits(tel) || tel[0] != '9' {
		return ErrTelefonoInvalido
	}
	return nil
}

// ValidarRangoPrecios checks 0 ≤ min ≤ max.
func ValidarRangoPrecios(min, max decimal.Decimal) error {
	if min.IsNegative() || max.IsNegative() || min.GreaterThan(max) {
		return ErrRangoPrecios
	}
	return nil
}
