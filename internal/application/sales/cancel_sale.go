package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

// CancelSaleUseCase anula una venta. La anulación no devuelve stock a inventario.
type CancelSaleUseCase struct {
	txRunner SalesTxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewCancelSaleUseCase construye el caso de uso.
func NewCancelSaleUseCase(txRunner SalesTxRunner, log *logger.Logger) *CancelSaleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CancelSaleUseCase{txRunner: txRunner, log: log.Component("cancel_sale"), now: time.Now}
}

// CancelSale pasa la venta a CANCELLED y agrega el motivo a las notas.
// La fila se bloquea durante la transacción: dos anulaciones simultáneas no pueden ganar ambas.
func (uc *CancelSaleUseCase) CancelSale(ctx context.Context, actor Actor, saleID, reason string) (*dto.SaleResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("reason", "el motivo de anulación es obligatorio")
	}
	if saleID == "" {
		return nil, domain.Invalid("id", "requerido")
	}

	var sale *entity.Sale
	err := uc.txRunner.RunSales(ctx, func(saleRepo repository.SaleRepository, _ repository.StockAdjustmentRepository) error {
		s, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.IsCancelled() {
			return fmt.Errorf("venta %s: %w", s.SaleNumber, domain.ErrAlreadyCancelled)
		}
		s.Cancel(reason, uc.now())
		if err := saleRepo.UpdateStatus(ctx, s); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("sale_number", sale.SaleNumber).
		Str("user_id", actor.UserID).
		Str("reason", reason).
		Msg("venta anulada")
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// SetClock reemplaza el reloj (tests).
func (uc *CancelSaleUseCase) SetClock(now func() time.Time) {
	uc.now = now
}
