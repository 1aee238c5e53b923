package entity

import "github.com/shopspring/decimal"

// Product producto tal como lo expone el servicio de catálogo.
// El precio de venta siempre proviene del catálogo, nunca del cliente.
type Product struct {
	ID        int64
	SKU       string
	Name      string
	SalePrice decimal.Decimal
}
