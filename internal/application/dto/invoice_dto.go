package dto

import "github.com/shopspring/decimal"

// InvoiceResponse factura SIAT en respuestas.
type InvoiceResponse struct {
	ID                string          `json:"id"`
	SaleID            string          `json:"saleId"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	AuthorizationCode string          `json:"authorizationCode"`
	CUF               string          `json:"cuf"`
	CUFD              string          `json:"cufd"`
	CustomerName      string          `json:"customerName"`
	CustomerNIT       string          `json:"customerNit"`
	Total             decimal.Decimal `json:"total"`
	QRPayload         string          `json:"qrPayload"`
	DocumentHash      string          `json:"documentHash"`
	IsElectronic      bool            `json:"isElectronic"`
	CreatedAt         string          `json:"createdAt"`
}

// GenerateInvoiceResponse respuesta de POST /api/siat/invoice/sale/:saleId.
// AlreadyInvoiced indica que se devolvió la factura existente sin emitir otra.
type GenerateInvoiceResponse struct {
	Invoice         InvoiceResponse `json:"invoice"`
	XML             string          `json:"xml"`
	QRCode          string          `json:"qrCode"` // data:image/png;base64,...
	AlreadyInvoiced bool            `json:"alreadyInvoiced"`
	Message         string          `json:"message"`
}
