package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, sale_id, invoice_number, authorization_code, cuf, cufd, customer_name, customer_nit,
	total, qr_payload, qr_image, xml_document, document_hash, is_electronic, created_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create inserta la factura. sale_id e invoice_number son únicos: el conflicto se
// informa como domain.ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		inv.ID, inv.SaleID, inv.InvoiceNumber, inv.AuthorizationCode, inv.CUF, inv.CUFD,
		inv.CustomerName, inv.CustomerNIT, inv.Total, inv.QRPayload, nullIfEmpty(inv.QRImage),
		inv.XMLDocument, inv.DocumentHash, inv.IsElectronic, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice for sale %s: %w", inv.SaleID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetBySaleID devuelve la factura de la venta; nil, nil si no tiene.
func (r *InvoiceRepo) GetBySaleID(ctx context.Context, saleID string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE sale_id = $1`, saleID)
}

// GetByID obtiene una factura por ID; nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, arg any) (*entity.Invoice, error) {
	var inv entity.Invoice
	var qrImage *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.SaleID, &inv.InvoiceNumber, &inv.AuthorizationCode, &inv.CUF, &inv.CUFD,
		&inv.CustomerName, &inv.CustomerNIT, &inv.Total, &inv.QRPayload, &qrImage,
		&inv.XMLDocument, &inv.DocumentHash, &inv.IsElectronic, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.QRImage = derefStr(qrImage)
	return &inv, nil
}
