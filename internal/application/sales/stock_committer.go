package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

// Resultados de un intento de descuento (etiqueta de métricas).
const (
	AdjustmentResultAcked     = "acked"
	AdjustmentResultRetry     = "retry"
	AdjustmentResultRejected  = "rejected"
	AdjustmentResultExhausted = "exhausted"
)

const maxBackoff = 10 * time.Minute

// CommitterConfig parámetros del despachador de ajustes.
type CommitterConfig struct {
	CallTimeout time.Duration // timeout de cada llamada a inventario
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	Interval    time.Duration
}

// StockCommitter confirma contra inventario los ajustes de stock guardados junto a cada venta.
// Cada ajuste se intenta una vez tras confirmar la venta; los que fallan quedan PENDING y
// el despachador (Run) los reintenta con backoff exponencial hasta que inventario los confirme,
// los rechace o se agoten los intentos.
type StockCommitter struct {
	inventory      InventoryService
	adjustmentRepo repository.StockAdjustmentRepository
	saleRepo       repository.SaleRepository
	metrics        Metrics
	log            *logger.Logger
	cfg            CommitterConfig
	now            func() time.Time
}

// NewStockCommitter construye el committer. Los repos deben estar atados al pool (no a una tx).
func NewStockCommitter(
	inventory InventoryService,
	adjustmentRepo repository.StockAdjustmentRepository,
	saleRepo repository.SaleRepository,
	metrics Metrics,
	log *logger.Logger,
	cfg CommitterConfig,
) *StockCommitter {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockCommitter{
		inventory:      inventory,
		adjustmentRepo: adjustmentRepo,
		saleRepo:       saleRepo,
		metrics:        metricsOrNop(metrics),
		log:            log.Component("stock_committer"),
		cfg:            cfg,
		now:            time.Now,
	}
}

// Lease tiempo durante el cual un ajuste reclamado no vuelve a ser tomado por otro intento.
func (c *StockCommitter) Lease() time.Duration {
	return 2 * c.cfg.CallTimeout
}

// CommitSale intenta todos los ajustes de una venta recién persistida, en paralelo e
// independientes entre sí: un fallo no cancela a los demás ni revierte la venta.
// Devuelve el estado de stock resultante y los errores de los intentos fallidos.
func (c *StockCommitter) CommitSale(ctx context.Context, sale *entity.Sale, adjustments []*entity.StockAdjustment) (string, []error) {
	if len(adjustments) == 0 {
		return entity.StockStatusCommitted, nil
	}
	// El descuento no debe abortarse si el cliente HTTP se desconecta.
	ctx = context.WithoutCancel(ctx)

	errs := make([]error, len(adjustments))
	var wg sync.WaitGroup
	for i, adj := range adjustments {
		wg.Add(1)
		go func(i int, adj *entity.StockAdjustment) {
			defer wg.Done()
			errs[i] = c.attempt(ctx, adj)
		}(i, adj)
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}

	status := entity.StockStatusOf(adjustments)
	if err := c.saleRepo.UpdateStockStatus(ctx, sale.ID, status); err != nil {
		c.log.Error().Err(err).Str("sale_id", sale.ID).Msg("actualizar estado de stock de la venta")
	}
	sale.StockStatus = status
	return status, failed
}

// DispatchPending ejecuta una pasada del despachador: reclama los ajustes vencidos y los intenta.
func (c *StockCommitter) DispatchPending(ctx context.Context) error {
	now := c.now()
	due, err := c.adjustmentRepo.ClaimDue(ctx, now, c.Lease(), c.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("reclamar ajustes pendientes: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	var finalErr *multierror.Error
	touched := map[string]struct{}{}
	for _, adj := range due {
		if err := c.attempt(ctx, adj); err != nil {
			finalErr = multierror.Append(finalErr, fmt.Errorf("ajuste %s (lote %d): %w", adj.ID, adj.LotID, err))
		}
		touched[adj.SaleID] = struct{}{}
	}
	for saleID := range touched {
		if err := c.refreshSale(ctx, saleID); err != nil {
			finalErr = multierror.Append(finalErr, err)
		}
	}
	c.log.Debug().Int("claimed", len(due)).Int("failed", failedCount(finalErr)).Msg("pasada de ajustes pendientes")
	return finalErr.ErrorOrNil()
}

// Run ejecuta DispatchPending cada Interval hasta que ctx se cancele.
func (c *StockCommitter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	c.log.Info().Dur("interval", c.cfg.Interval).Msg("despachador de ajustes de stock iniciado")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("despachador de ajustes de stock detenido")
			return
		case <-ticker.C:
			if err := c.DispatchPending(ctx); err != nil && ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("ajustes de stock sin confirmar")
			}
		}
	}
}

// attempt envía un ajuste a inventario una sola vez y persiste el resultado.
func (c *StockCommitter) attempt(ctx context.Context, adj *entity.StockAdjustment) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	err := c.inventory.DecrementStock(callCtx, adj.Command())
	cancel()

	now := c.now()
	adj.Attempts++
	adj.UpdatedAt = now

	var result string
	switch {
	case err == nil:
		adj.Status = entity.AdjustmentAcked
		adj.AckedAt = &now
		adj.LastError = ""
		result = AdjustmentResultAcked
	case errors.Is(err, domain.ErrStockRejected):
		adj.Status = entity.AdjustmentFailed
		adj.LastError = err.Error()
		result = AdjustmentResultRejected
	case adj.Attempts >= c.cfg.MaxAttempts:
		adj.Status = entity.AdjustmentFailed
		adj.LastError = err.Error()
		result = AdjustmentResultExhausted
	default:
		adj.Status = entity.AdjustmentPending
		adj.LastError = err.Error()
		adj.NextAttemptAt = now.Add(c.backoff(adj.Attempts))
		result = AdjustmentResultRetry
	}
	c.metrics.StockAdjustment(result)

	ev := c.log.Info()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("adjustment_id", adj.ID).
		Str("sale_id", adj.SaleID).
		Int64("lot_id", adj.LotID).
		Int("quantity", adj.Quantity).
		Int("attempt", adj.Attempts).
		Str("result", result).
		Msg("descuento de stock")

	if saveErr := c.adjustmentRepo.SaveAttempt(ctx, adj); saveErr != nil {
		c.log.Error().Err(saveErr).Str("adjustment_id", adj.ID).Str("result", result).Msg("guardar intento de ajuste")
		if err == nil {
			return fmt.Errorf("guardar ajuste confirmado: %w", saveErr)
		}
	}
	return err
}

func (c *StockCommitter) backoff(attempts int) time.Duration {
	d := c.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func (c *StockCommitter) refreshSale(ctx context.Context, saleID string) error {
	adjustments, err := c.adjustmentRepo.ListBySale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("ajustes de la venta %s: %w", saleID, err)
	}
	if err := c.saleRepo.UpdateStockStatus(ctx, saleID, entity.StockStatusOf(adjustments)); err != nil {
		return fmt.Errorf("estado de stock de la venta %s: %w", saleID, err)
	}
	return nil
}

func failedCount(err *multierror.Error) int {
	if err == nil {
		return 0
	}
	return len(err.Errors)
}

// SetClock reemplaza el reloj (tests).
func (c *StockCommitter) SetClock(now func() time.Time) {
	c.now = now
}
