package billing

import (
	"context"

	"github.com/saludtotal/farmacia-ventas/internal/domain/siat"
	infrasiat "github.com/saludtotal/farmacia-ventas/internal/infrastructure/siat"
)

// InvoiceNumberAllocator asigna números de factura globales.
type InvoiceNumberAllocator interface {
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// CUFGenerator genera el Código Único de Facturación.
type CUFGenerator interface {
	Generate(p siat.CUFParams) (string, error)
}

// InvoiceEncoder produce QR, XML y hash del documento fiscal.
type InvoiceEncoder interface {
	Encode(doc infrasiat.InvoiceDocument) (*infrasiat.EncodedInvoice, error)
}

// Metrics contadores de facturación.
type Metrics interface {
	InvoiceGenerated(result string)
}

// Resultados reportados a Metrics.
const (
	InvoiceResultIssued   = "issued"
	InvoiceResultExisting = "existing"
	InvoiceResultFailed   = "failed"
)

type nopMetrics struct{}

func (nopMetrics) InvoiceGenerated(string) {}
