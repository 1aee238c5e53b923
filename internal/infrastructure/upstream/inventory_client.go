package upstream

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// IdempotencyHeader cabecera con la que inventario deduplica ajustes reintentados.
const IdempotencyHeader = "Idempotency-Key"

type stockPayload struct {
	ProductID     int64 `json:"productId"`
	TotalQuantity int   `json:"totalQuantity"`
	Batches       int   `json:"batches"`
	Stocks        []struct {
		ID             int64  `json:"id"`
		BatchNumber    string `json:"batchNumber"`
		Quantity       int    `json:"quantity"`
		ExpirationDate string `json:"expirationDate"`
	} `json:"stocks"`
}

type adjustPayload struct {
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// InventoryClient consulta y descuenta stock en el servicio de inventario.
type InventoryClient struct {
	rest *resty.Client
}

var _ sales.InventoryService = (*InventoryClient)(nil)

// NewInventoryClient crea el cliente para INVENTORY_SERVICE_URL.
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{rest: newRestClient(baseURL, timeout)}
}

// GetStock GET /stock/product/{id}/total. Un 404 se interpreta como producto sin stock.
func (c *InventoryClient) GetStock(ctx context.Context, productID int64) (*entity.StockSummary, error) {
	var out stockPayload
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetResult(&out).
		Get("/stock/product/{id}/total")
	if err == nil && resp.StatusCode() == 404 {
		return &entity.StockSummary{ProductID: productID}, nil
	}
	if err := classify("inventario", resp, err, nil, domain.ErrUpstreamUnavailable); err != nil {
		return nil, err
	}

	summary := &entity.StockSummary{ProductID: productID, TotalQuantity: out.TotalQuantity}
	for _, s := range out.Stocks {
		summary.Lots = append(summary.Lots, entity.Lot{
			ID:             s.ID,
			BatchNumber:    s.BatchNumber,
			Quantity:       s.Quantity,
			ExpirationDate: parseDate(s.ExpirationDate),
		})
	}
	return summary, nil
}

// DecrementStock POST /stock/{lotId}/adjust con la clave de idempotencia del ajuste.
// 4xx → domain.ErrStockRejected; 5xx, timeout o transporte → domain.ErrUpstreamUnavailable.
func (c *InventoryClient) DecrementStock(ctx context.Context, cmd entity.StockDecrementCommand) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(IdempotencyHeader, cmd.IdempotencyKey).
		SetPathParam("lotId", strconv.FormatInt(cmd.LotID, 10)).
		SetBody(adjustPayload{
			Quantity: cmd.Quantity,
			Type:     entity.AdjustmentTypeSale,
			Reason:   cmd.Reason,
			UserID:   cmd.UserID,
			UserName: cmd.UserName,
		}).
		Post("/stock/{lotId}/adjust")
	return classify("inventario", resp, err, nil, domain.ErrStockRejected)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
