package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
)

var statusByKind = map[string]int{
	domain.KindInvalidRequest:      fiber.StatusBadRequest,
	domain.KindInvalidDiscount:     fiber.StatusBadRequest,
	domain.KindProductNotFound:     fiber.StatusNotFound,
	domain.KindNotFound:            fiber.StatusNotFound,
	domain.KindInsufficientStock:   fiber.StatusConflict,
	domain.KindAlreadyCancelled:    fiber.StatusConflict,
	domain.KindSaleCancelled:       fiber.StatusConflict,
	domain.KindUpstreamUnavailable: fiber.StatusServiceUnavailable,
	domain.KindNumberAllocation:    fiber.StatusInternalServerError,
	domain.KindUnauthorized:        fiber.StatusUnauthorized,
	domain.KindForbidden:           fiber.StatusForbidden,
}

// StatusFor devuelve el código HTTP de un error de dominio.
func StatusFor(err error) int {
	if s, ok := statusByKind[domain.Kind(err)]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// writeError responde con dto.ErrorResponse según la clase del error.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.Kind(err)
	resp := dto.ErrorResponse{Code: kind, Message: err.Error()}

	var stockErr *domain.StockError
	var invalid *domain.InvalidRequestError
	switch {
	case errors.As(err, &stockErr):
		resp.Message = stockErr.Error()
		resp.Details = map[string]string{
			"productId":   strconv.FormatInt(stockErr.ProductID, 10),
			"productName": stockErr.ProductName,
			"requested":   strconv.Itoa(stockErr.Requested),
			"available":   strconv.Itoa(stockErr.Available),
		}
	case errors.As(err, &invalid):
		resp.Message = invalid.Error()
		if invalid.Field != "" {
			resp.Details = map[string]string{invalid.Field: invalid.Reason}
		}
	case kind == domain.KindInternal || kind == domain.KindNumberAllocation:
		resp.Message = "error interno"
	}
	return c.Status(StatusFor(err)).JSON(resp)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// uuidParam lee un parámetro de ruta que debe ser un UUID y lo devuelve normalizado.
func uuidParam(c *fiber.Ctx, name string) (string, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return "", domain.Invalid(name, "debe ser un UUID")
	}
	return id.String(), nil
}
