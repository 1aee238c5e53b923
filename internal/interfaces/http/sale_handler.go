package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
)

// SaleFinalizer confirma ventas.
type SaleFinalizer interface {
	FinalizeSale(ctx context.Context, actor sales.Actor, in dto.CreateSaleRequest) (*dto.FinalizeSaleResponse, error)
}

// SaleCanceller anula ventas.
type SaleCanceller interface {
	CancelSale(ctx context.Context, actor sales.Actor, saleID, reason string) (*dto.SaleResponse, error)
}

// SaleQuerier consultas de ventas.
type SaleQuerier interface {
	GetSale(ctx context.Context, id string) (*dto.SaleResponse, error)
	GetSaleByNumber(ctx context.Context, number string) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, q dto.ListSalesQuery) (*dto.SaleListResponse, error)
	Statistics(ctx context.Context, q dto.StatisticsQuery) (*dto.SaleStatisticsResponse, error)
}

// SaleHandler maneja las peticiones HTTP de ventas (protegido).
type SaleHandler struct {
	finalize SaleFinalizer
	cancel   SaleCanceller
	query    SaleQuerier
}

// NewSaleHandler construye el handler.
func NewSaleHandler(finalize SaleFinalizer, cancel SaleCanceller, query SaleQuerier) *SaleHandler {
	return &SaleHandler{finalize: finalize, cancel: cancel, query: query}
}

// Create confirma una venta.
// POST /api/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	resp, err := h.finalize.FinalizeSale(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Cancel anula una venta.
// POST|PATCH /api/sales/:id/cancel
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CancelSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	resp, err := h.cancel.CancelSale(c.UserContext(), actorFrom(c), id, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetByID GET /api/sales/:id
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	resp, err := h.query.GetSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetByNumber GET /api/sales/number/:saleNumber
func (h *SaleHandler) GetByNumber(c *fiber.Ctx) error {
	resp, err := h.query.GetSaleByNumber(c.UserContext(), c.Params("saleNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// List GET /api/sales?page=&limit=&startDate=&endDate=
func (h *SaleHandler) List(c *fiber.Ctx) error {
	q := dto.ListSalesQuery{
		PageRequest: dto.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 10)},
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
	}
	resp, err := h.query.ListSales(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Statistics GET /api/sales/statistics?startDate=&endDate=
func (h *SaleHandler) Statistics(c *fiber.Ctx) error {
	q := dto.StatisticsQuery{StartDate: c.Query("startDate"), EndDate: c.Query("endDate")}
	resp, err := h.query.Statistics(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
