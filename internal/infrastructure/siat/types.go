package siat

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuer datos del emisor.
type Issuer struct {
	NIT         string
	RazonSocial string
}

// Customer datos del cliente. Complement es el complemento del documento (opcional).
type Customer struct {
	Name           string
	DocumentNumber string
	Complement     string
}

// Line línea de detalle de la factura.
type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// InvoiceDocument datos necesarios para codificar una factura de compra-venta.
type InvoiceDocument struct {
	CUF               string
	CUFD              string
	InvoiceNumber     string
	AuthorizationCode string
	EmittedAt         time.Time
	Issuer            Issuer
	Customer          Customer
	Lines             []Line
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
}

// EncodedInvoice artefactos generados para una factura.
type EncodedInvoice struct {
	QRPayload    string
	QRImage      string // data:image/png;base64,...
	XML          string
	DocumentHash string // SHA-256 hex del XML canónico
}
