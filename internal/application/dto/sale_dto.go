package dto

import "github.com/shopspring/decimal"

// CreateSaleRequest body para POST /api/sales.
// El precio unitario no se recibe: siempre se toma del catálogo.
type CreateSaleRequest struct {
	CustomerID    *int64            `json:"customerId,omitempty"`
	CustomerName  string            `json:"customerName,omitempty" validate:"max=200"`
	CustomerNIT   string            `json:"customerNit,omitempty" validate:"max=20"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod" validate:"required,oneof=CASH QR CARD CREDIT"`
	Discount      decimal.Decimal   `json:"discount"`
	Notes         string            `json:"notes,omitempty" validate:"max=1000"`
}

// SaleItemRequest línea solicitada. StockID es el lote preferido (opcional).
type SaleItemRequest struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
	StockID   *int64          `json:"stockId,omitempty" validate:"omitempty,gt=0"`
}

// CancelSaleRequest body para anular una venta.
type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListSalesQuery filtros de GET /api/sales (fechas YYYY-MM-DD, ambas inclusive).
type ListSalesQuery struct {
	PageRequest
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductSKU  string          `json:"productSku"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	StockID     *int64          `json:"stockId,omitempty"`
	BatchNumber string          `json:"batchNumber,omitempty"`
}

// SaleResponse venta en respuestas.
type SaleResponse struct {
	ID            string             `json:"id"`
	SaleNumber    string             `json:"saleNumber"`
	CustomerID    *int64             `json:"customerId,omitempty"`
	CustomerName  string             `json:"customerName"`
	CustomerNIT   string             `json:"customerNit"`
	Status        string             `json:"status"`
	StockStatus   string             `json:"stockStatus"`
	PaymentMethod string             `json:"paymentMethod"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	Notes         string             `json:"notes,omitempty"`
	UserID        string             `json:"userId"`
	UserName      string             `json:"userName"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     string             `json:"createdAt"`
	UpdatedAt     string             `json:"updatedAt"`
}

// FinalizeSaleResponse respuesta de POST /api/sales. Warnings incluye PARTIAL_STOCK_COMMIT
// cuando algún descuento de stock quedó pendiente.
type FinalizeSaleResponse struct {
	Sale     SaleResponse `json:"sale"`
	Warnings []string     `json:"warnings,omitempty"`
}

// SaleListResponse listado paginado.
type SaleListResponse struct {
	Data []SaleResponse `json:"data"`
	Meta PageResponse   `json:"meta"`
}

// StatisticsQuery rango de GET /api/sales/statistics.
type StatisticsQuery struct {
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

// PaymentMethodStatsResponse agregados por método de pago.
type PaymentMethodStatsResponse struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SaleStatisticsResponse estadísticas de ventas completadas.
type SaleStatisticsResponse struct {
	TotalSales      int                                   `json:"totalSales"`
	TotalRevenue    decimal.Decimal                       `json:"totalRevenue"`
	AverageSale     decimal.Decimal                       `json:"averageSale"`
	ByPaymentMethod map[string]PaymentMethodStatsResponse `json:"byPaymentMethod"`
}
