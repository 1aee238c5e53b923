package upstream

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

type productPayload struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	PriceSale decimal.Decimal `json:"priceSale"`
}

// ProductsClient consulta el servicio de catálogo.
type ProductsClient struct {
	rest *resty.Client
}

var _ sales.ProductCatalog = (*ProductsClient)(nil)

// NewProductsClient crea el cliente para PRODUCTS_SERVICE_URL.
func NewProductsClient(baseURL string, timeout time.Duration) *ProductsClient {
	return &ProductsClient{rest: newRestClient(baseURL, timeout)}
}

// GetProduct GET /products/{id}. 404 → domain.ErrProductNotFound.
func (c *ProductsClient) GetProduct(ctx context.Context, productID int64) (*entity.Product, error) {
	var out productPayload
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetResult(&out).
		Get("/products/{id}")
	if err := classify("catálogo", resp, err, domain.ErrProductNotFound, domain.ErrUpstreamUnavailable); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = productID
	}
	return &entity.Product{ID: out.ID, SKU: out.SKU, Name: out.Name, SalePrice: out.PriceSale}, nil
}
