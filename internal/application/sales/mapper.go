package sales

import (
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// ToSaleResponse convierte la entidad a su representación HTTP (montos a 2 decimales).
func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:            s.ID,
		SaleNumber:    s.SaleNumber,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		CustomerNIT:   s.CustomerNIT,
		Status:        s.Status,
		StockStatus:   s.StockStatus,
		PaymentMethod: s.PaymentMethod,
		Subtotal:      s.Subtotal.Round(2),
		Discount:      s.Discount.Round(2),
		Tax:           s.Tax.Round(2),
		Total:         s.Total.Round(2),
		Notes:         s.Notes,
		UserID:        s.UserID,
		UserName:      s.UserName,
		Items:         make([]dto.SaleItemResponse, 0, len(s.Items)),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Round(2),
			Subtotal:    it.Subtotal.Round(2),
			Discount:    it.Discount.Round(2),
			Total:       it.Total.Round(2),
			StockID:     it.LotID,
			BatchNumber: it.BatchNumber,
		})
	}
	return resp
}
