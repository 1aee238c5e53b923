package entity

import "time"

// Estados de un ajuste de stock pendiente de confirmar por inventario.
const (
	AdjustmentPending = "PENDING"
	AdjustmentAcked   = "ACKED"
	AdjustmentFailed  = "FAILED"
)

// AdjustmentTypeSale tipo de ajuste que inventario registra por una venta.
const AdjustmentTypeSale = "AJUSTE_NEGATIVO"

// StockAdjustment descuento de stock de un lote originado por una venta. Se guarda en la
// misma transacción que la venta y se reintenta hasta que inventario lo confirme.
type StockAdjustment struct {
	ID            string
	SaleID        string
	ProductID     int64
	LotID         int64
	Quantity      int
	Reason        string // "Venta #<número>"
	UserID        string
	UserName      string
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	AckedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StockDecrementCommand orden enviada a inventario para descontar un lote.
type StockDecrementCommand struct {
	IdempotencyKey string
	LotID          int64
	Quantity       int
	Reason         string
	UserID         string
	UserName       string
}

// Command arma la orden de descuento correspondiente al ajuste.
func (a *StockAdjustment) Command() StockDecrementCommand {
	return StockDecrementCommand{
		IdempotencyKey: a.ID,
		LotID:          a.LotID,
		Quantity:       a.Quantity,
		Reason:         a.Reason,
		UserID:         a.UserID,
		UserName:       a.UserName,
	}
}

// StockStatusOf resume el estado de stock de una venta a partir de sus ajustes.
func StockStatusOf(adjustments []*StockAdjustment) string {
	status := StockStatusCommitted
	for _, a := range adjustments {
		switch a.Status {
		case AdjustmentFailed:
			return StockStatusPartial
		case AdjustmentPending:
			status = StockStatusPending
		}
	}
	return status
}
