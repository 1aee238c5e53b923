package repository

import "context"

// CounterRepository contador atómico por ámbito ("sale:20240315", "invoice").
// Next incrementa y devuelve el nuevo valor en una sola operación; el primer valor es 1.
type CounterRepository interface {
	Next(ctx context.Context, scope string) (int64, error)
}
