// Package pricing: cálculo de subtotales, descuentos y total de una venta (servicio de dominio puro).
//
//	subtotal = Σ precioUnitario × cantidad
//	descuento = Σ descuento de línea + descuento global
//	total = subtotal − descuento + impuesto   (impuesto = 0, precios con impuesto incluido)
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
)

// Line datos de una línea necesarios para el cálculo.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Discount  decimal.Decimal
}

// LineTotals resultado por línea.
type LineTotals struct {
	UnitPrice decimal.Decimal // precio de catálogo redondeado a centavos
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// Totals resultado de la venta completa.
type Totals struct {
	Lines    []LineTotals
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CentDecimals decimales que admite un monto.
const CentDecimals = 2

// IsCents indica si d no tiene fracciones de centavo.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(CentDecimals))
}

// Calculate calcula los totales con aritmética decimal exacta sobre montos en centavos:
// el precio de catálogo se redondea a 2 decimales antes de multiplicar y los descuentos
// no admiten fracciones de centavo, así total = subtotal − descuento vale también
// para los importes guardados y facturados.
// Devuelve domain.ErrInvalidDiscount si un descuento supera el monto al que se aplica.
func Calculate(lines []Line, orderDiscount decimal.Decimal) (*Totals, error) {
	if orderDiscount.IsNegative() {
		return nil, domain.Invalid("discount", "no puede ser negativo")
	}
	if !IsCents(orderDiscount) {
		return nil, domain.Invalid("discount", "máximo 2 decimales")
	}
	t := &Totals{
		Lines:    make([]LineTotals, 0, len(lines)),
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].quantity", i), "debe ser mayor o igual a 1")
		}
		if l.Discount.IsNegative() {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].discount", i), "no puede ser negativo")
		}
		if !IsCents(l.Discount) {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].discount", i), "máximo 2 decimales")
		}
		price := l.UnitPrice.Round(CentDecimals)
		sub := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if l.Discount.GreaterThan(sub) {
			return nil, fmt.Errorf("línea %d: descuento %s mayor que subtotal %s: %w",
				i+1, l.Discount.StringFixed(2), sub.StringFixed(2), domain.ErrInvalidDiscount)
		}
		t.Lines = append(t.Lines, LineTotals{
			UnitPrice: price,
			Subtotal:  sub,
			Discount:  l.Discount,
			Total:     sub.Sub(l.Discount),
		})
		t.Subtotal = t.Subtotal.Add(sub)
		t.Discount = t.Discount.Add(l.Discount)
	}
	t.Discount = t.Discount.Add(orderDiscount)
	if t.Discount.GreaterThan(t.Subtotal) {
		return nil, fmt.Errorf("descuento total %s mayor que subtotal %s: %w",
			t.Discount.StringFixed(2), t.Subtotal.StringFixed(2), domain.ErrInvalidDiscount)
	}
	t.Total = t.Subtotal.Sub(t.Discount).Add(t.Tax)
	return t, nil
}
