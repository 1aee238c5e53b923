package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

const adjustmentColumns = `id, sale_id, product_id, lot_id, quantity, reason, user_id, user_name,
	status, attempts, last_error, next_attempt_at, acked_at, created_at, updated_at`

// StockAdjustmentRepo outbox de ajustes de stock (tabla stock_adjustments).
type StockAdjustmentRepo struct {
	q Querier
}

// NewStockAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAdjustmentRepository(q Querier) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{q: q}
}

// Create inserta el ajuste (en la tx de la venta).
func (r *StockAdjustmentRepo) Create(ctx context.Context, a *entity.StockAdjustment) error {
	_, err := r.q.Exec(ctx, `INSERT INTO stock_adjustments (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.SaleID, a.ProductID, a.LotID, a.Quantity, a.Reason, a.UserID, a.UserName,
		a.Status, a.Attempts, nullIfEmpty(a.LastError), a.NextAttemptAt, a.AckedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock adjustment: %w", err)
	}
	return nil
}

// ClaimDue reserva ajustes vencidos con FOR UPDATE SKIP LOCKED y corre su próximo intento,
// así dos despachadores no toman la misma fila.
func (r *StockAdjustmentRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*entity.StockAdjustment, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE stock_adjustments
		SET next_attempt_at = $2, updated_at = $1
		WHERE id IN (
			SELECT id FROM stock_adjustments
			WHERE status = $3 AND next_attempt_at <= $1
			ORDER BY next_attempt_at, created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+adjustmentColumns,
		now, now.Add(lease), entity.AdjustmentPending, limit)
	if err != nil {
		return nil, fmt.Errorf("claim stock adjustments: %w", err)
	}
	return scanAdjustments(rows)
}

// ListBySale devuelve los ajustes de una venta.
func (r *StockAdjustmentRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.StockAdjustment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments
		WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list stock adjustments: %w", err)
	}
	return scanAdjustments(rows)
}

// SaveAttempt persiste el resultado de un intento.
func (r *StockAdjustmentRepo) SaveAttempt(ctx context.Context, a *entity.StockAdjustment) error {
	_, err := r.q.Exec(ctx, `
		UPDATE stock_adjustments
		SET status = $2, attempts = $3, last_error = $4, next_attempt_at = $5, acked_at = $6, updated_at = $7
		WHERE id = $1`,
		a.ID, a.Status, a.Attempts, nullIfEmpty(a.LastError), a.NextAttemptAt, a.AckedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save stock adjustment attempt: %w", err)
	}
	return nil
}

func scanAdjustments(rows pgx.Rows) ([]*entity.StockAdjustment, error) {
	defer rows.Close()
	var list []*entity.StockAdjustment
	for rows.Next() {
		var a entity.StockAdjustment
		var lastErr *string
		if err := rows.Scan(&a.ID, &a.SaleID, &a.ProductID, &a.LotID, &a.Quantity, &a.Reason, &a.UserID, &a.UserName,
			&a.Status, &a.Attempts, &lastErr, &a.NextAttemptAt, &a.AckedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		a.LastError = derefStr(lastErr)
		list = append(list, &a)
	}
	return list, rows.Err()
}
