// Package numbering asigna números de documento (venta y factura) sobre contadores atómicos.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

// Ámbitos y límites de los contadores.
const (
	InvoiceScope      = "invoice"
	saleScopePrefix   = "sale:"
	maxDailySale      = 9999
	maxInvoiceNumber  = 9_999_999_999
	invoiceNumberSize = 10
)

// Allocator entrega números únicos y crecientes. Un número asignado nunca se reutiliza,
// aunque la operación que lo pidió falle después (se aceptan huecos).
type Allocator struct {
	counters repository.CounterRepository
}

// NewAllocator construye el asignador.
func NewAllocator(counters repository.CounterRepository) *Allocator {
	return &Allocator{counters: counters}
}

// NextSaleNumber devuelve YYYYMMDD + secuencia diaria de 4 dígitos. La fecha se toma en la
// zona horaria de 'date'.
func (a *Allocator) NextSaleNumber(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("20060102")
	seq, err := a.allocate(ctx, saleScopePrefix+day)
	if err != nil {
		return "", err
	}
	if seq > maxDailySale {
		return "", fmt.Errorf("secuencia diaria %d agotada para %s: %w", seq, day, domain.ErrNumberAllocation)
	}
	return fmt.Sprintf("%s%04d", day, seq), nil
}

// NextInvoiceNumber devuelve el siguiente número de factura global, 10 dígitos.
func (a *Allocator) NextInvoiceNumber(ctx context.Context) (string, error) {
	seq, err := a.allocate(ctx, InvoiceScope)
	if err != nil {
		return "", err
	}
	if seq > maxInvoiceNumber {
		return "", fmt.Errorf("numeración de facturas agotada: %w", domain.ErrNumberAllocation)
	}
	return fmt.Sprintf("%0*d", invoiceNumberSize, seq), nil
}

func (a *Allocator) allocate(ctx context.Context, scope string) (int64, error) {
	seq, err := a.counters.Next(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("contador %s: %v: %w", scope, err, domain.ErrNumberAllocation)
	}
	if seq < 1 {
		return 0, fmt.Errorf("contador %s devolvió %d: %w", scope, seq, domain.ErrNumberAllocation)
	}
	return seq, nil
}
