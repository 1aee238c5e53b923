package postgres

import (
	"context"
	"fmt"

	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo contadores atómicos en document_counters.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador. Se usa con el pool: cada Next se confirma
// por sí solo, fuera de la transacción de la venta.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa el contador del ámbito en una sola sentencia y devuelve el nuevo valor.
func (r *CounterRepo) Next(ctx context.Context, scope string) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_counters (scope, value, updated_at) VALUES ($1, 1, NOW())
		ON CONFLICT (scope) DO UPDATE
		SET value = document_counters.value + 1, updated_at = NOW()
		RETURNING value`, scope).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next counter %s: %w", scope, err)
	}
	return v, nil
}
