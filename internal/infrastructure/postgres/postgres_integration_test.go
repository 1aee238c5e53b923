package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/postgres"
	"github.com/saludtotal/farmacia-ventas/pkg/config"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

// Estas pruebas corren contra una base real; sin DATABASE_URL se omiten.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = postgres.Migrate(ctx, pool, logger.Nop())
	require.NoError(t, err)
	return pool
}

// ──── Contadores ────

func TestCounterRepo_NextConcurrenteNoRepite(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	scope := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM document_counters WHERE scope = $1`, scope)
	})

	repo := postgres.NewCounterRepository(pool)
	const n = 20
	var (
		mu   sync.Mutex
		got  []int64
		wg   sync.WaitGroup
		errs = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(ctx, scope)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, int64(i+1), v)
	}
}

// ──── Outbox de ajustes ────

// insertSale crea la venta padre de los ajustes y la borra con ellos al terminar.
func insertSale(t *testing.T, pool *pgxpool.Pool, at time.Time) string {
	t.Helper()
	id := uuid.NewString()
	number := fmt.Sprintf("T%011d", time.Now().UnixNano()%100_000_000_000)
	_, err := pool.Exec(context.Background(), `
		INSERT INTO sales (id, sale_number, customer_name, customer_nit, status, stock_status,
			payment_method, subtotal, discount, tax, total, user_id, user_name, created_at, updated_at)
		VALUES ($1, $2, 'Cliente prueba', '0', 'COMPLETED', 'PENDING', 'EFECTIVO', 10, 0, 0, 10,
			'u-1', 'Cajero', $3, $3)`, id, number, at)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM stock_adjustments WHERE sale_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	})
	return id
}

func TestStockAdjustmentRepo_ClaimDueNoDuplicaEntreDespachadores(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	// Fechas en el pasado lejano: sólo las filas de esta prueba están vencidas para now.
	due := time.Date(2001, 3, 1, 10, 0, 0, 0, time.UTC)
	now := due.Add(time.Minute)
	const lease = 30 * time.Second

	saleID := insertSale(t, pool, due)
	repo := postgres.NewStockAdjustmentRepository(pool)
	want := map[string]bool{}
	for i := 0; i < 6; i++ {
		a := &entity.StockAdjustment{
			ID: uuid.NewString(), SaleID: saleID, ProductID: 7, LotID: int64(20 + i), Quantity: 1,
			Reason: "Venta #T1", UserID: "u-1", UserName: "Cajero",
			Status: entity.AdjustmentPending, NextAttemptAt: due.Add(time.Duration(i) * time.Second),
			CreatedAt: due, UpdatedAt: due,
		}
		require.NoError(t, repo.Create(ctx, a))
		want[a.ID] = true
	}

	var (
		wg     sync.WaitGroup
		claims [2][]*entity.StockAdjustment
		errs   [2]error
	)
	for i := range claims {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims[i], errs[i] = repo.ClaimDue(ctx, now, lease, 3)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	seen := map[string]bool{}
	for _, c := range claims {
		for _, a := range c {
			assert.False(t, seen[a.ID], "ajuste %s reclamado dos veces", a.ID)
			seen[a.ID] = true
			assert.True(t, a.NextAttemptAt.Equal(now.Add(lease)), "el reclamo corre el próximo intento")
		}
	}
	assert.Equal(t, want, seen)

	// Dentro del lease nadie vuelve a tomarlos.
	again, err := repo.ClaimDue(ctx, now.Add(lease/2), lease, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	// Vencido el lease vuelven a estar disponibles.
	later, err := repo.ClaimDue(ctx, now.Add(lease+time.Second), lease, 10)
	require.NoError(t, err)
	assert.Len(t, later, 6)
}
