package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidRequest      = errors.New("solicitud inválida")
	ErrInvalidDiscount     = errors.New("el descuento supera el subtotal")
	ErrProductNotFound     = errors.New("producto no encontrado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrUpstreamUnavailable = errors.New("servicio colaborador no disponible")
	ErrStockRejected       = errors.New("ajuste de stock rechazado por inventario")
	ErrAlreadyCancelled    = errors.New("la venta ya está anulada")
	ErrAlreadyInvoiced     = errors.New("la venta ya tiene factura")
	ErrSaleCancelled       = errors.New("no se puede facturar una venta anulada")
	ErrNumberAllocation    = errors.New("no se pudo asignar el número de documento")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
)

// Códigos estables expuestos al cliente HTTP.
const (
	KindInvalidRequest      = "INVALID_REQUEST"
	KindInvalidDiscount     = "INVALID_DISCOUNT"
	KindProductNotFound     = "PRODUCT_NOT_FOUND"
	KindInsufficientStock   = "INSUFFICIENT_STOCK"
	KindUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	KindAlreadyCancelled    = "ALREADY_CANCELLED"
	KindSaleCancelled       = "SALE_CANCELLED"
	KindNumberAllocation    = "NUMBER_ALLOCATION_FAILURE"
	KindNotFound            = "NOT_FOUND"
	KindUnauthorized        = "UNAUTHORIZED"
	KindForbidden           = "FORBIDDEN"
	KindInternal            = "INTERNAL"

	// WarningPartialStockCommit se devuelve junto a una venta persistida cuyo
	// descuento de stock no se confirmó por completo.
	WarningPartialStockCommit = "PARTIAL_STOCK_COMMIT"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidDiscount, KindInvalidDiscount},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrProductNotFound, KindProductNotFound},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrUpstreamUnavailable, KindUpstreamUnavailable},
	{ErrAlreadyCancelled, KindAlreadyCancelled},
	{ErrSaleCancelled, KindSaleCancelled},
	{ErrNumberAllocation, KindNumberAllocation},
	{ErrNotFound, KindNotFound},
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
}

// Kind clasifica un error de dominio en su código estable. Errores no reconocidos son INTERNAL.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// StockError detalla una falta de stock: qué producto y cuánto hay disponible.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", e.ProductName, e.Available, e.Requested)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// InvalidRequestError describe por qué se rechazó la solicitud.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap permite errors.Is(err, ErrInvalidRequest).
func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// Invalid construye un InvalidRequestError.
func Invalid(field, reason string) error {
	return &InvalidRequestError{Field: field, Reason: reason}
}
