package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
)

// Estado del descuento de stock asociado a la venta.
const (
	StockStatusPending   = "PENDING"   // Hay ajustes sin confirmar por inventario
	StockStatusCommitted = "COMMITTED" // Todos los ajustes confirmados
	StockStatusPartial   = "PARTIAL"   // Algún ajuste falló definitivamente
)

// Métodos de pago aceptados.
const (
	PaymentCash   = "CASH"
	PaymentQR     = "QR"
	PaymentCard   = "CARD"
	PaymentCredit = "CREDIT"
)

// Valores por defecto para ventas sin cliente identificado.
const (
	DefaultCustomerName = "Cliente General"
	DefaultCustomerNIT  = "0"
)

// ValidPaymentMethod indica si el método de pago es uno de los aceptados.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentQR, PaymentCard, PaymentCredit:
		return true
	}
	return false
}

// Sale cabecera de una venta confirmada. Tax siempre es cero (precios con impuesto incluido).
type Sale struct {
	ID            string
	SaleNumber    string // YYYYMMDD + secuencia diaria de 4 dígitos
	CustomerID    *int64
	CustomerName  string
	CustomerNIT   string
	Status        string
	StockStatus   string
	PaymentMethod string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal // descuentos de línea + descuento global
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	UserID        string
	UserName      string
	Items         []*SaleItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCancelled indica si la venta fue anulada.
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// Cancel marca la venta como anulada y deja constancia del motivo en las notas.
func (s *Sale) Cancel(reason string, now time.Time) {
	s.Status = SaleStatusCancelled
	s.Notes = s.Notes + "\nCANCELADA: " + reason
	s.UpdatedAt = now
}

// SaleItem línea de venta resuelta contra catálogo e inventario.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   int64
	ProductSKU  string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal // UnitPrice × Quantity
	Discount    decimal.Decimal
	Total       decimal.Decimal // Subtotal − Discount
	LotID       *int64
	BatchNumber string
}

// SaleStatistics agregados de ventas en un rango de fechas.
type SaleStatistics struct {
	TotalSales      int
	TotalRevenue    decimal.Decimal
	AverageSale     decimal.Decimal
	ByPaymentMethod map[string]PaymentMethodStats
}

// PaymentMethodStats agregados por método de pago.
type PaymentMethodStats struct {
	Count int
	Total decimal.Decimal
}
