package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/pricing"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

// Config parámetros del caso de uso.
type Config struct {
	UpstreamTimeout time.Duration  // timeout por llamada a catálogo/inventario
	Location        *time.Location // zona horaria para la numeración diaria
}

// FinalizeSaleUseCase convierte un carrito en una venta confirmada:
//
//	validar → consultar catálogo e inventario en paralelo → calcular totales →
//	asignar número → guardar venta + ajustes de stock (una tx) → descontar stock
//
// Si algo falla antes de guardar, no queda nada persistido. Después de guardar, los fallos
// de descuento de stock no revierten la venta: quedan pendientes y se informan como aviso.
type FinalizeSaleUseCase struct {
	txRunner  SalesTxRunner
	catalog   ProductCatalog
	inventory InventoryService
	numbers   SaleNumberAllocator
	committer *StockCommitter
	metrics   Metrics
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
}

// NewFinalizeSaleUseCase construye el caso de uso.
func NewFinalizeSaleUseCase(
	txRunner SalesTxRunner,
	catalog ProductCatalog,
	inventory InventoryService,
	numbers SaleNumberAllocator,
	committer *StockCommitter,
	metrics Metrics,
	log *logger.Logger,
	cfg Config,
) *FinalizeSaleUseCase {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 5 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FinalizeSaleUseCase{
		txRunner:  txRunner,
		catalog:   catalog,
		inventory: inventory,
		numbers:   numbers,
		committer: committer,
		metrics:   metricsOrNop(metrics),
		log:       log.Component("finalize_sale"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// resolvedLine línea validada contra catálogo e inventario.
type resolvedLine struct {
	req         dto.SaleItemRequest
	product     *entity.Product
	allocations []entity.LotAllocation
}

// FinalizeSale registra la venta y devuelve la venta persistida con sus avisos.
func (uc *FinalizeSaleUseCase) FinalizeSale(ctx context.Context, actor Actor, in dto.CreateSaleRequest) (*dto.FinalizeSaleResponse, error) {
	resp, err := uc.finalize(ctx, actor, in)
	if err != nil {
		uc.metrics.SaleRejected(domain.Kind(err))
		return nil, err
	}
	uc.metrics.SaleFinalized(in.PaymentMethod)
	return resp, nil
}

func (uc *FinalizeSaleUseCase) finalize(ctx context.Context, actor Actor, in dto.CreateSaleRequest) (*dto.FinalizeSaleResponse, error) {
	if err := validateSaleRequest(actor, in); err != nil {
		return nil, err
	}

	lines, err := uc.resolveLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	pricingLines := make([]pricing.Line, len(lines))
	for i, l := range lines {
		pricingLines[i] = pricing.Line{UnitPrice: l.product.SalePrice, Quantity: l.req.Quantity, Discount: l.req.Discount}
	}
	totals, err := pricing.Calculate(pricingLines, in.Discount)
	if err != nil {
		return nil, err
	}

	now := uc.now().In(uc.cfg.Location)
	saleNumber, err := uc.numbers.NextSaleNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	sale := buildSale(saleNumber, actor, in, lines, totals, now)
	adjustments := buildAdjustments(sale, lines, now, uc.committer.Lease())

	err = uc.txRunner.RunSales(ctx, func(saleRepo repository.SaleRepository, adjustmentRepo repository.StockAdjustmentRepository) error {
		if err := saleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("guardar venta %s: %w", sale.SaleNumber, err)
		}
		for _, adj := range adjustments {
			if err := adjustmentRepo.Create(ctx, adj); err != nil {
				return fmt.Errorf("guardar ajuste de stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("sale_number", sale.SaleNumber).
		Str("total", sale.Total.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("venta registrada")

	var warnings []string
	status, failed := uc.committer.CommitSale(ctx, sale, adjustments)
	if status != entity.StockStatusCommitted {
		warnings = append(warnings, domain.WarningPartialStockCommit)
		for _, e := range failed {
			uc.log.Warn().Err(e).Str("sale_id", sale.ID).Msg("descuento de stock pendiente")
		}
	}

	return &dto.FinalizeSaleResponse{Sale: ToSaleResponse(sale), Warnings: warnings}, nil
}

// resolveLines consulta producto y stock de cada producto distinto en paralelo.
// El primer error cancela las consultas restantes.
func (uc *FinalizeSaleUseCase) resolveLines(ctx context.Context, items []dto.SaleItemRequest) ([]resolvedLine, error) {
	requested := map[int64]int{}
	var ids []int64
	for _, it := range items {
		if _, ok := requested[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}

	products := make([]*entity.Product, len(ids))
	stocks := make([]*entity.StockSummary, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, uc.cfg.UpstreamTimeout)
			defer cancel()
			p, err := uc.catalog.GetProduct(callCtx, id)
			if err != nil {
				return fmt.Errorf("producto %d: %w", id, err)
			}
			products[i] = p
			return nil
		})
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, uc.cfg.UpstreamTimeout)
			defer cancel()
			s, err := uc.inventory.GetStock(callCtx, id)
			if err != nil {
				return fmt.Errorf("stock del producto %d: %w", id, err)
			}
			if s.TotalQuantity < requested[id] {
				return &domain.StockError{ProductID: id, Requested: requested[id], Available: s.TotalQuantity}
			}
			stocks[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			stockErr.ProductName = productName(ids, products, stockErr.ProductID)
		}
		return nil, err
	}

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	// Remanente por producto: cada línea se asigna contra lo que dejaron las anteriores.
	remaining := make([]*entity.StockSummary, len(stocks))
	for i, s := range stocks {
		remaining[i] = s.Clone()
	}
	lines := make([]resolvedLine, len(items))
	for i, it := range items {
		p := products[index[it.ProductID]]
		allocs, err := allocateLots(i, it, p, remaining[index[it.ProductID]])
		if err != nil {
			return nil, err
		}
		lines[i] = resolvedLine{req: it, product: p, allocations: allocs}
	}
	return lines, nil
}

// allocateLots respeta el lote preferido si pertenece al producto y le queda cantidad; si no
// se indicó, reparte entre los lotes en orden de vencimiento. s es el remanente del producto.
func allocateLots(i int, it dto.SaleItemRequest, p *entity.Product, s *entity.StockSummary) ([]entity.LotAllocation, error) {
	if it.StockID == nil {
		allocs, ok := s.Allocate(it.Quantity)
		if !ok {
			return nil, &domain.StockError{ProductID: p.ID, ProductName: p.Name, Requested: it.Quantity, Available: s.LotsQuantity()}
		}
		return allocs, nil
	}
	lot := s.FindLot(*it.StockID)
	if lot == nil {
		return nil, domain.Invalid(fmt.Sprintf("items[%d].stockId", i), fmt.Sprintf("el lote %d no pertenece al producto %s", *it.StockID, p.Name))
	}
	alloc, ok := s.AllocateLot(lot.ID, it.Quantity)
	if !ok {
		return nil, &domain.StockError{ProductID: p.ID, ProductName: p.Name + " (lote " + lot.BatchNumber + ")", Requested: it.Quantity, Available: lot.Quantity}
	}
	return []entity.LotAllocation{alloc}, nil
}

func productName(ids []int64, products []*entity.Product, id int64) string {
	for i, pid := range ids {
		if pid == id && products[i] != nil {
			return products[i].Name
		}
	}
	return fmt.Sprintf("producto %d", id)
}

func validateSaleRequest(actor Actor, in dto.CreateSaleRequest) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return domain.Invalid("user", "usuario requerido")
	}
	if len(in.Items) == 0 {
		return domain.Invalid("items", "la venta debe tener al menos un producto")
	}
	if !entity.ValidPaymentMethod(in.PaymentMethod) {
		return domain.Invalid("paymentMethod", fmt.Sprintf("método de pago no soportado: %q", in.PaymentMethod))
	}
	if in.Discount.IsNegative() {
		return domain.Invalid("discount", "no puede ser negativo")
	}
	if !pricing.IsCents(in.Discount) {
		return domain.Invalid("discount", "máximo 2 decimales")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return domain.Invalid(fmt.Sprintf("items[%d].productId", i), "requerido")
		}
		if it.Quantity < 1 {
			return domain.Invalid(fmt.Sprintf("items[%d].quantity", i), "debe ser mayor o igual a 1")
		}
		if it.Discount.IsNegative() {
			return domain.Invalid(fmt.Sprintf("items[%d].discount", i), "no puede ser negativo")
		}
		if !pricing.IsCents(it.Discount) {
			return domain.Invalid(fmt.Sprintf("items[%d].discount", i), "máximo 2 decimales")
		}
	}
	return nil
}

func buildSale(number string, actor Actor, in dto.CreateSaleRequest, lines []resolvedLine, totals *pricing.Totals, now time.Time) *entity.Sale {
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		SaleNumber:    number,
		CustomerID:    in.CustomerID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerNIT:   strings.TrimSpace(in.CustomerNIT),
		Status:        entity.SaleStatusCompleted,
		StockStatus:   entity.StockStatusPending,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Notes:         in.Notes,
		UserID:        actor.UserID,
		UserName:      actor.UserName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if sale.CustomerName == "" {
		sale.CustomerName = entity.DefaultCustomerName
	}
	if sale.CustomerNIT == "" {
		sale.CustomerNIT = entity.DefaultCustomerNIT
	}
	for i, l := range lines {
		item := &entity.SaleItem{
			ID:          uuid.New().String(),
			SaleID:      sale.ID,
			ProductID:   l.product.ID,
			ProductSKU:  l.product.SKU,
			ProductName: l.product.Name,
			Quantity:    l.req.Quantity,
			UnitPrice:   totals.Lines[i].UnitPrice,
			Subtotal:    totals.Lines[i].Subtotal,
			Discount:    totals.Lines[i].Discount,
			Total:       totals.Lines[i].Total,
		}
		if len(l.allocations) > 0 {
			lotID := l.allocations[0].LotID
			item.LotID = &lotID
			item.BatchNumber = l.allocations[0].BatchNumber
		}
		sale.Items = append(sale.Items, item)
	}
	return sale
}

// buildAdjustments crea un ajuste PENDING por cada lote asignado a cada línea. El primer
// intento lo hace CommitSale; por eso el despachador no los toma hasta que vence el lease.
func buildAdjustments(sale *entity.Sale, lines []resolvedLine, now time.Time, lease time.Duration) []*entity.StockAdjustment {
	var out []*entity.StockAdjustment
	for _, l := range lines {
		for _, a := range l.allocations {
			out = append(out, &entity.StockAdjustment{
				ID:            uuid.New().String(),
				SaleID:        sale.ID,
				ProductID:     l.product.ID,
				LotID:         a.LotID,
				Quantity:      a.Quantity,
				Reason:        "Venta #" + sale.SaleNumber,
				UserID:        sale.UserID,
				UserName:      sale.UserName,
				Status:        entity.AdjustmentPending,
				NextAttemptAt: now.Add(lease),
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}
	return out
}

// SetClock reemplaza el reloj (tests).
func (uc *FinalizeSaleUseCase) SetClock(now func() time.Time) {
	uc.now = now
}
