package repository

import (
	"context"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// StockAdjustmentRepository bandeja de salida (outbox) de descuentos de stock.
type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.StockAdjustment) error
	// ClaimDue toma hasta limit ajustes PENDING vencidos (los más antiguos primero) y corre su
	// próximo intento a now+lease, para que otra pasada concurrente no los repita.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*entity.StockAdjustment, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.StockAdjustment, error)
	// SaveAttempt persiste el resultado de un intento (estado, intentos, error, próximo intento).
	SaveAttempt(ctx context.Context, adj *entity.StockAdjustment) error
}
