package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saludtotal/farmacia-ventas/internal/application/billing"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// InvoiceService emisión y consulta de facturas.
type InvoiceService interface {
	GenerateInvoice(ctx context.Context, saleID string) (*billing.InvoiceResult, error)
	GetInvoiceBySale(ctx context.Context, saleID string) (*entity.Invoice, error)
}

// InvoiceHandler maneja las peticiones HTTP de facturación SIAT (protegido).
type InvoiceHandler struct {
	uc InvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Generate emite la factura de una venta. 201 si es nueva, 200 si ya existía.
// POST /api/siat/invoice/sale/:saleId
func (h *InvoiceHandler) Generate(c *fiber.Ctx) error {
	saleID, err := uuidParam(c, "saleId")
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.GenerateInvoice(c.UserContext(), saleID)
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if res.AlreadyInvoiced {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(billing.ToGenerateInvoiceResponse(res))
}

// GetBySale devuelve la factura de una venta.
// GET /api/siat/invoice/sale/:saleId
func (h *InvoiceHandler) GetBySale(c *fiber.Ctx) error {
	saleID, err := uuidParam(c, "saleId")
	if err != nil {
		return writeError(c, err)
	}
	inv, err := h.uc.GetInvoiceBySale(c.UserContext(), saleID)
	if err != nil {
		return writeError(c, err)
	}
	resp := billing.ToGenerateInvoiceResponse(&billing.InvoiceResult{Invoice: inv, AlreadyInvoiced: true})
	resp.Message = "Factura encontrada"
	return c.JSON(resp)
}
