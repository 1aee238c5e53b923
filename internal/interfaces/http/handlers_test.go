package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saludtotal/farmacia-ventas/internal/application/billing"
	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/metrics"
	apphttp "github.com/saludtotal/farmacia-ventas/internal/interfaces/http"
)

// ──── Fakes ────

type fakeSalesAPI struct {
	finalizeErr error
	cancelErr   error
	lastActor   sales.Actor
	lastRequest dto.CreateSaleRequest
	lastReason  string
	calls       []string
}

func (f *fakeSalesAPI) FinalizeSale(_ context.Context, actor sales.Actor, in dto.CreateSaleRequest) (*dto.FinalizeSaleResponse, error) {
	f.lastActor, f.lastRequest = actor, in
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	return &dto.FinalizeSaleResponse{Sale: dto.SaleResponse{ID: "5b0e7c1a-0000-4000-8000-000000000001", SaleNumber: "202403150001", Status: entity.SaleStatusCompleted}}, nil
}

func (f *fakeSalesAPI) CancelSale(_ context.Context, actor sales.Actor, saleID, reason string) (*dto.SaleResponse, error) {
	f.lastActor, f.lastReason = actor, reason
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &dto.SaleResponse{ID: saleID, Status: entity.SaleStatusCancelled}, nil
}

func (f *fakeSalesAPI) GetSale(_ context.Context, id string) (*dto.SaleResponse, error) {
	f.calls = append(f.calls, "id:"+id)
	if id == "5b0e7c1a-0000-4000-8000-0000000000ff" {
		return nil, domain.ErrNotFound
	}
	return &dto.SaleResponse{ID: id}, nil
}

func (f *fakeSalesAPI) GetSaleByNumber(_ context.Context, number string) (*dto.SaleResponse, error) {
	f.calls = append(f.calls, "number:"+number)
	return &dto.SaleResponse{SaleNumber: number}, nil
}

func (f *fakeSalesAPI) ListSales(_ context.Context, q dto.ListSalesQuery) (*dto.SaleListResponse, error) {
	f.calls = append(f.calls, fmt.Sprintf("list:%d:%d:%s", q.Page, q.Limit, q.StartDate))
	return &dto.SaleListResponse{Data: []dto.SaleResponse{}, Meta: dto.NewPageResponse(0, q.PageRequest)}, nil
}

func (f *fakeSalesAPI) Statistics(_ context.Context, q dto.StatisticsQuery) (*dto.SaleStatisticsResponse, error) {
	f.calls = append(f.calls, "stats:"+q.StartDate+":"+q.EndDate)
	if q.StartDate == "ayer" {
		return nil, domain.Invalid("startDate", "formato esperado YYYY-MM-DD")
	}
	return &dto.SaleStatisticsResponse{TotalSales: 3}, nil
}

type fakeInvoiceAPI struct {
	invoiced map[string]bool
}

func (f *fakeInvoiceAPI) GenerateInvoice(_ context.Context, saleID string) (*billing.InvoiceResult, error) {
	switch saleID {
	case "5b0e7c1a-0000-4000-8000-00000000000a":
		return nil, domain.ErrSaleCancelled
	case "5b0e7c1a-0000-4000-8000-0000000000ff":
		return nil, domain.ErrNotFound
	}
	already := f.invoiced[saleID]
	f.invoiced[saleID] = true
	return &billing.InvoiceResult{
		Invoice:         &entity.Invoice{ID: "fac-" + saleID, SaleID: saleID, InvoiceNumber: "0000000001", Total: decimal.RequireFromString("24"), XMLDocument: "<factura/>"},
		AlreadyInvoiced: already,
	}, nil
}

func (f *fakeInvoiceAPI) GetInvoiceBySale(_ context.Context, saleID string) (*entity.Invoice, error) {
	if !f.invoiced[saleID] {
		return nil, domain.ErrNotFound
	}
	return &entity.Invoice{ID: "fac-" + saleID, SaleID: saleID}, nil
}

// ──── Helpers ────

type apiFixture struct {
	app      *fiber.App
	sales    *fakeSalesAPI
	invoices *fakeInvoiceAPI
	recorder *metrics.Recorder
}

func newAPI(cancelRoles ...string) *apiFixture {
	f := &apiFixture{
		app:      fiber.New(),
		sales:    &fakeSalesAPI{},
		invoices: &fakeInvoiceAPI{invoiced: map[string]bool{}},
		recorder: metrics.NewRecorder(false),
	}
	apphttp.Router(f.app, apphttp.RouterDeps{
		FinalizeSale:   f.sales,
		CancelSale:     f.sales,
		QuerySales:     f.sales,
		Invoices:       f.invoices,
		JWTSecret:      testJWTSecret,
		CancelRoles:    cancelRoles,
		Metrics:        f.recorder,
		MetricsHandler: f.recorder.Handler(),
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, role, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "-" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

const validSale = `{"items":[{"productId":1,"quantity":2}],"paymentMethod":"CASH","customerName":"Juan"}`

// ──── Ventas ────

func TestPostSales_Creada(t *testing.T) {
	f := newAPI()
	resp, body := f.do(t, http.MethodPost, "/api/sales", "vendedor", validSale)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "202403150001", body["sale"].(map[string]any)["saleNumber"])
	assert.Equal(t, sales.Actor{UserID: testUserID, UserName: testUserName}, f.sales.lastActor, "el usuario sale del token")
	require.Len(t, f.sales.lastRequest.Items, 1)
	assert.Equal(t, 2, f.sales.lastRequest.Items[0].Quantity)
}

func TestPostSales_SinToken(t *testing.T) {
	f := newAPI()
	resp, _ := f.do(t, http.MethodPost, "/api/sales", "-", validSale)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostSales_Validacion(t *testing.T) {
	f := newAPI()

	resp, body := f.do(t, http.MethodPost, "/api/sales", "vendedor", `{"items":[],"paymentMethod":"CASH"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.KindInvalidRequest, body["code"])
	assert.Contains(t, body["details"], "items")

	resp, body = f.do(t, http.MethodPost, "/api/sales", "vendedor", `{"items":[{"productId":1,"quantity":0}],"paymentMethod":"BITCOIN"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details := body["details"].(map[string]any)
	assert.Contains(t, details, "paymentMethod")
	assert.Contains(t, details, "items[0].quantity")

	resp, body = f.do(t, http.MethodPost, "/api/sales", "vendedor", `{no es json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body["code"])
}

func TestPostSales_ErroresDeDominio(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stock", &domain.StockError{ProductID: 1, ProductName: "Paracetamol", Requested: 100, Available: 10}, http.StatusConflict, domain.KindInsufficientStock},
		{"descuento", domain.ErrInvalidDiscount, http.StatusBadRequest, domain.KindInvalidDiscount},
		{"producto", fmt.Errorf("catálogo: %w", domain.ErrProductNotFound), http.StatusNotFound, domain.KindProductNotFound},
		{"upstream", fmt.Errorf("inventario: %w", domain.ErrUpstreamUnavailable), http.StatusServiceUnavailable, domain.KindUpstreamUnavailable},
		{"numeración", domain.ErrNumberAllocation, http.StatusInternalServerError, domain.KindNumberAllocation},
		{"interno", fmt.Errorf("conexión perdida"), http.StatusInternalServerError, domain.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPI()
			f.sales.finalizeErr = tc.err
			resp, body := f.do(t, http.MethodPost, "/api/sales", "vendedor", validSale)

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestPostSales_StockInsuficienteDetalla(t *testing.T) {
	f := newAPI()
	f.sales.finalizeErr = &domain.StockError{ProductID: 1, ProductName: "Paracetamol", Requested: 100, Available: 10}
	_, body := f.do(t, http.MethodPost, "/api/sales", "vendedor", validSale)

	details := body["details"].(map[string]any)
	assert.Equal(t, "10", details["available"])
	assert.Equal(t, "Paracetamol", details["productName"])
}

func TestCancelSale_PostYPatch(t *testing.T) {
	f := newAPI()

	resp, body := f.do(t, http.MethodPost, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "vendedor", `{"reason":"cliente desistió"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.SaleStatusCancelled, body["status"])
	assert.Equal(t, "cliente desistió", f.sales.lastReason)

	resp, _ = f.do(t, http.MethodPatch, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "vendedor", `{"reason":"error de cobro"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "vendedor", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "el motivo es obligatorio")
}

func TestCancelSale_YaAnulada(t *testing.T) {
	f := newAPI()
	f.sales.cancelErr = fmt.Errorf("venta 202403150001: %w", domain.ErrAlreadyCancelled)

	resp, body := f.do(t, http.MethodPost, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "vendedor", `{"reason":"otra vez"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.KindAlreadyCancelled, body["code"])
}

func TestCancelSale_RolesConfigurados(t *testing.T) {
	f := newAPI("admin", "supervisor")

	resp, _ := f.do(t, http.MethodPost, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "vendedor", `{"reason":"x"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/sales/5b0e7c1a-0000-4000-8000-000000000001/cancel", "supervisor", `{"reason":"x"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSales_Rutas(t *testing.T) {
	f := newAPI()

	resp, _ := f.do(t, http.MethodGet, "/api/sales/statistics?startDate=2024-03-01&endDate=2024-03-31", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/sales/number/202403150001", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/sales/5b0e7c1a-0000-4000-8000-000000000009", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/sales?page=2&limit=5&startDate=2024-03-01", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{
		"stats:2024-03-01:2024-03-31",
		"number:202403150001",
		"id:5b0e7c1a-0000-4000-8000-000000000009",
		"list:2:5:2024-03-01",
	}, f.sales.calls)

	resp, body := f.do(t, http.MethodGet, "/api/sales/5b0e7c1a-0000-4000-8000-0000000000ff", "vendedor", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.KindNotFound, body["code"])

	resp, body = f.do(t, http.MethodGet, "/api/sales/statistics?startDate=ayer", "vendedor", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "formato esperado YYYY-MM-DD", body["details"].(map[string]any)["startDate"])
}

// ──── Facturación ────

func TestInvoice_NuevaYExistente(t *testing.T) {
	f := newAPI()

	resp, body := f.do(t, http.MethodPost, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-000000000001", "vendedor", "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["alreadyInvoiced"])
	assert.Equal(t, "<factura/>", body["xml"])

	resp, body = f.do(t, http.MethodPost, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-000000000001", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["alreadyInvoiced"])

	resp, body = f.do(t, http.MethodGet, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-000000000001", "vendedor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fac-5b0e7c1a-0000-4000-8000-000000000001", body["invoice"].(map[string]any)["id"])
}

func TestInvoice_Errores(t *testing.T) {
	f := newAPI()

	resp, body := f.do(t, http.MethodPost, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-00000000000a", "vendedor", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.KindSaleCancelled, body["code"])

	resp, _ = f.do(t, http.MethodPost, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-0000000000ff", "vendedor", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/siat/invoice/sale/5b0e7c1a-0000-4000-8000-0000000000fe", "vendedor", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Un id que no es UUID se rechaza en el handler, sin llegar a la base de datos.
func TestRutas_IdMalformado(t *testing.T) {
	f := newAPI()
	cases := []struct{ method, path, body, field string }{
		{http.MethodGet, "/api/sales/abc", "", "id"},
		{http.MethodPost, "/api/sales/abc/cancel", `{"reason":"x"}`, "id"},
		{http.MethodPatch, "/api/sales/1234/cancel", `{"reason":"x"}`, "id"},
		{http.MethodPost, "/api/siat/invoice/sale/venta%201", "", "saleId"},
		{http.MethodGet, "/api/siat/invoice/sale/xyz", "", "saleId"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := f.do(t, tc.method, tc.path, "vendedor", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, domain.KindInvalidRequest, body["code"])
			assert.Contains(t, body["details"].(map[string]any), tc.field)
		})
	}
	assert.Empty(t, f.sales.calls, "no se consulta el caso de uso")
	assert.Empty(t, f.invoices.invoiced)
}

// ──── Métricas ────

func TestMetrics_PublicoYCuentaSolicitudes(t *testing.T) {
	f := newAPI()
	f.do(t, http.MethodPost, "/api/sales", "vendedor", validSale)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "/metrics no requiere token")
	assert.Contains(t, string(raw), `route="/api/sales"`)
	assert.Contains(t, string(raw), `status="201"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, apphttp.StatusFor(domain.ErrAlreadyCancelled))
	assert.Equal(t, http.StatusServiceUnavailable, apphttp.StatusFor(fmt.Errorf("x: %w", domain.ErrUpstreamUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, apphttp.StatusFor(fmt.Errorf("desconocido")))
}
