package repository

import (
	"context"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// SaleFilter filtros tipados para listar ventas y calcular estadísticas.
type SaleFilter struct {
	Page  int
	Limit int
	From  *time.Time
	To    *time.Time
}

// Offset devuelve el desplazamiento correspondiente a Page/Limit (Page empieza en 1).
func (f SaleFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// Create guarda cabecera y líneas. Un número de venta repetido devuelve domain.ErrDuplicate.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByNumber(ctx context.Context, saleNumber string) (*entity.Sale, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateStatus persiste estado y notas (anulación).
	UpdateStatus(ctx context.Context, sale *entity.Sale) error
	UpdateStockStatus(ctx context.Context, saleID, stockStatus string) error
	List(ctx context.Context, f SaleFilter) ([]*entity.Sale, int, error)
	// Statistics agrega solo ventas COMPLETED.
	Statistics(ctx context.Context, f SaleFilter) (*entity.SaleStatistics, error)
}
