package repository

import (
	"context"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas SIAT.
type InvoiceRepository interface {
	// Create inserta la factura. Si la venta ya tiene factura devuelve domain.ErrDuplicate.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetBySaleID devuelve nil, nil si la venta no tiene factura.
	GetBySaleID(ctx context.Context, saleID string) (*entity.Invoice, error)
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
}
