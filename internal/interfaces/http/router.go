package http

import (
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// RequestMetrics registra cada solicitud atendida.
type RequestMetrics interface {
	HTTPRequest(method, route string, status int, elapsed time.Duration)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	FinalizeSale SaleFinalizer
	CancelSale   SaleCanceller
	QuerySales   SaleQuerier
	Invoices     InvoiceService
	JWTSecret    string
	CancelRoles  []string // vacío = cualquier usuario autenticado
	Metrics      RequestMetrics

	// MetricsHandler se publica en GET /metrics, sin autenticación.
	MetricsHandler nethttp.Handler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(metricsMiddleware(deps.Metrics))
	}
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Ventas
	saleHandler := NewSaleHandler(deps.FinalizeSale, deps.CancelSale, deps.QuerySales)
	salesGroup := api.Group("/sales")
	salesGroup.Post("", saleHandler.Create)
	salesGroup.Get("", saleHandler.List)
	salesGroup.Get("/statistics", saleHandler.Statistics)
	salesGroup.Get("/number/:saleNumber", saleHandler.GetByNumber)
	salesGroup.Get("/:id", saleHandler.GetByID)
	cancelRole := RequireRole(deps.CancelRoles...)
	salesGroup.Post("/:id/cancel", cancelRole, saleHandler.Cancel)
	salesGroup.Patch("/:id/cancel", cancelRole, saleHandler.Cancel)

	// Facturación SIAT
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	siat := api.Group("/siat/invoice")
	siat.Post("/sale/:saleId", invoiceHandler.Generate)
	siat.Get("/sale/:saleId", invoiceHandler.GetBySale)
}

func metricsMiddleware(m RequestMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
