package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice factura electrónica SIAT emitida para una venta. Se emite una sola vez por venta
// y no se modifica después.
type Invoice struct {
	ID                string
	SaleID            string
	InvoiceNumber     string // 10 dígitos con ceros a la izquierda
	AuthorizationCode string
	CUF               string // Código Único de Facturación (44 dígitos)
	CUFD              string // Código Único de Facturación Diaria
	CustomerName      string
	CustomerNIT       string
	Total             decimal.Decimal
	QRPayload         string // NIT|numeroFactura|autorización|fecha|total|CUF
	QRImage           string // data:image/png;base64,...
	XMLDocument       string
	DocumentHash      string // SHA-256 del XML canónico (C14N)
	IsElectronic      bool
	CreatedAt         time.Time
}
