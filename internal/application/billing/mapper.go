package billing

import (
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
)

// ToInvoiceResponse convierte la entidad en DTO.
func ToInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:                inv.ID,
		SaleID:            inv.SaleID,
		InvoiceNumber:     inv.InvoiceNumber,
		AuthorizationCode: inv.AuthorizationCode,
		CUF:               inv.CUF,
		CUFD:              inv.CUFD,
		CustomerName:      inv.CustomerName,
		CustomerNIT:       inv.CustomerNIT,
		Total:             inv.Total.Round(2),
		QRPayload:         inv.QRPayload,
		DocumentHash:      inv.DocumentHash,
		IsElectronic:      inv.IsElectronic,
		CreatedAt:         inv.CreatedAt.Format(time.RFC3339),
	}
}

// ToGenerateInvoiceResponse arma la respuesta de emisión con XML y QR.
func ToGenerateInvoiceResponse(r *InvoiceResult) *dto.GenerateInvoiceResponse {
	msg := "Factura generada"
	if r.AlreadyInvoiced {
		msg = "La venta ya tenía factura"
	}
	return &dto.GenerateInvoiceResponse{
		Invoice:         ToInvoiceResponse(r.Invoice),
		XML:             r.Invoice.XMLDocument,
		QRCode:          r.Invoice.QRImage,
		AlreadyInvoiced: r.AlreadyInvoiced,
		Message:         msg,
	}
}
