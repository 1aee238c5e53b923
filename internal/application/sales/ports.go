package sales

import (
	"context"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

// ProductCatalog servicio de catálogo (colaborador externo).
// Devuelve domain.ErrProductNotFound si el producto no existe y
// domain.ErrUpstreamUnavailable ante timeout o fallo del servicio.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID int64) (*entity.Product, error)
}

// InventoryService servicio de inventario (colaborador externo, dueño de los lotes).
type InventoryService interface {
	GetStock(ctx context.Context, productID int64) (*entity.StockSummary, error)
	// DecrementStock descuenta un lote. domain.ErrStockRejected si inventario rechaza la orden
	// (no se reintenta); cualquier otro error se considera transitorio.
	DecrementStock(ctx context.Context, cmd entity.StockDecrementCommand) error
}

// SalesTxRunner ejecuta una función dentro de una transacción con los repos de ventas.
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		adjustmentRepo repository.StockAdjustmentRepository,
	) error) error
}

// SaleNumberAllocator asigna números de venta únicos.
type SaleNumberAllocator interface {
	NextSaleNumber(ctx context.Context, date time.Time) (string, error)
}

// Metrics contadores del flujo de ventas.
type Metrics interface {
	SaleFinalized(paymentMethod string)
	SaleRejected(kind string)
	StockAdjustment(result string)
}

// Actor usuario que ejecuta la operación (tomado del token).
type Actor struct {
	UserID   string
	UserName string
}

type nopMetrics struct{}

func (nopMetrics) SaleFinalized(string)   {}
func (nopMetrics) SaleRejected(string)    {}
func (nopMetrics) StockAdjustment(string) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
