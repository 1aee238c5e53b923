package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
	"github.com/saludtotal/farmacia-ventas/internal/domain/siat"
	infrasiat "github.com/saludtotal/farmacia-ventas/internal/infrastructure/siat"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

// IssuerConfig datos fiscales del emisor.
type IssuerConfig struct {
	NIT          string
	RazonSocial  string
	Branch       int
	Mode         int
	EmissionType int
	Location     *time.Location // zona horaria fiscal
}

// InvoiceResult factura devuelta por GenerateInvoice. AlreadyInvoiced indica que la venta ya
// tenía factura y no se emitió otra.
type InvoiceResult struct {
	Invoice         *entity.Invoice
	AlreadyInvoiced bool
}

// InvoiceUseCase emite y consulta facturas electrónicas de ventas.
type InvoiceUseCase struct {
	saleRepo    repository.SaleRepository
	invoiceRepo repository.InvoiceRepository
	numbers     InvoiceNumberAllocator
	cuf         CUFGenerator
	cufd        siat.CUFDProvider
	authCodes   siat.AuthorizationCodeSource
	encoder     InvoiceEncoder
	metrics     Metrics
	log         *logger.Logger
	issuer      IssuerConfig
	now         func() time.Time
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	saleRepo repository.SaleRepository,
	invoiceRepo repository.InvoiceRepository,
	numbers InvoiceNumberAllocator,
	cuf CUFGenerator,
	cufd siat.CUFDProvider,
	authCodes siat.AuthorizationCodeSource,
	encoder InvoiceEncoder,
	metrics Metrics,
	log *logger.Logger,
	issuer IssuerConfig,
) *InvoiceUseCase {
	if issuer.Location == nil {
		issuer.Location = time.Local
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		saleRepo:    saleRepo,
		invoiceRepo: invoiceRepo,
		numbers:     numbers,
		cuf:         cuf,
		cufd:        cufd,
		authCodes:   authCodes,
		encoder:     encoder,
		metrics:     metrics,
		log:         log.Component("invoice"),
		issuer:      issuer,
		now:         time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *InvoiceUseCase) SetClock(now func() time.Time) { uc.now = now }

// GenerateInvoice emite la factura de la venta. Es idempotente: si la venta ya tiene
// factura la devuelve sin asignar un número nuevo.
func (uc *InvoiceUseCase) GenerateInvoice(ctx context.Context, saleID string) (*InvoiceResult, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("cargar venta: %w", err)
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.IsCancelled() {
		return nil, domain.ErrSaleCancelled
	}

	existing, err := uc.invoiceRepo.GetBySaleID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("buscar factura: %w", err)
	}
	if existing != nil {
		uc.metrics.InvoiceGenerated(InvoiceResultExisting)
		return &InvoiceResult{Invoice: existing, AlreadyInvoiced: true}, nil
	}

	inv, err := uc.issue(ctx, sale)
	if err != nil {
		uc.metrics.InvoiceGenerated(InvoiceResultFailed)
		return nil, err
	}

	if err := uc.invoiceRepo.Create(ctx, inv); err != nil {
		if !errors.Is(err, domain.ErrDuplicate) {
			uc.metrics.InvoiceGenerated(InvoiceResultFailed)
			return nil, fmt.Errorf("guardar factura: %w", err)
		}
		// Otra solicitud facturó la venta primero; su número queda como hueco.
		winner, lerr := uc.invoiceRepo.GetBySaleID(ctx, saleID)
		if lerr != nil || winner == nil {
			uc.metrics.InvoiceGenerated(InvoiceResultFailed)
			return nil, fmt.Errorf("recargar factura concurrente: %w", errors.Join(err, lerr))
		}
		uc.log.Info().Str("sale_id", saleID).Str("invoice_number", inv.InvoiceNumber).
			Msg("factura concurrente detectada, se devuelve la existente")
		uc.metrics.InvoiceGenerated(InvoiceResultExisting)
		return &InvoiceResult{Invoice: winner, AlreadyInvoiced: true}, nil
	}

	uc.log.Info().Str("sale_id", saleID).Str("sale_number", sale.SaleNumber).
		Str("invoice_number", inv.InvoiceNumber).Str("cuf", inv.CUF).Msg("factura emitida")
	uc.metrics.InvoiceGenerated(InvoiceResultIssued)
	return &InvoiceResult{Invoice: inv}, nil
}

// GetInvoiceBySale devuelve la factura de la venta o domain.ErrNotFound.
func (uc *InvoiceUseCase) GetInvoiceBySale(ctx context.Context, saleID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetBySaleID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("buscar factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// issue arma la factura completa (números, códigos y documento) sin persistirla.
func (uc *InvoiceUseCase) issue(ctx context.Context, sale *entity.Sale) (*entity.Invoice, error) {
	now := uc.now().In(uc.issuer.Location)

	number, err := uc.numbers.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	cuf, err := uc.cuf.Generate(siat.CUFParams{
		NIT:          uc.issuer.NIT,
		Branch:       uc.issuer.Branch,
		Mode:         uc.issuer.Mode,
		EmissionType: uc.issuer.EmissionType,
		Timestamp:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("generar CUF: %w", err)
	}
	cufd, err := uc.cufd.CUFD(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("obtener CUFD: %w", err)
	}
	auth, err := uc.authCodes.NextAuthorizationCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("código de autorización: %w", err)
	}

	docNumber, complement := splitNIT(sale.CustomerNIT)
	doc := infrasiat.InvoiceDocument{
		CUF:               cuf,
		CUFD:              cufd,
		InvoiceNumber:     number,
		AuthorizationCode: auth,
		EmittedAt:         now,
		Issuer:            infrasiat.Issuer{NIT: uc.issuer.NIT, RazonSocial: uc.issuer.RazonSocial},
		Customer:          infrasiat.Customer{Name: sale.CustomerName, DocumentNumber: docNumber, Complement: complement},
		Subtotal:          sale.Subtotal,
		Discount:          sale.Discount,
		Total:             sale.Total,
	}
	for _, it := range sale.Items {
		doc.Lines = append(doc.Lines, infrasiat.Line{
			Description: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}

	enc, err := uc.encoder.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("codificar factura: %w", err)
	}

	return &entity.Invoice{
		ID:                uuid.New().String(),
		SaleID:            sale.ID,
		InvoiceNumber:     number,
		AuthorizationCode: auth,
		CUF:               cuf,
		CUFD:              cufd,
		CustomerName:      sale.CustomerName,
		CustomerNIT:       sale.CustomerNIT,
		Total:             sale.Total,
		QRPayload:         enc.QRPayload,
		QRImage:           enc.QRImage,
		XMLDocument:       enc.XML,
		DocumentHash:      enc.DocumentHash,
		IsElectronic:      true,
		CreatedAt:         now,
	}, nil
}

// splitNIT separa "1234567-1A" en número de documento y complemento.
func splitNIT(nit string) (string, string) {
	nit = strings.TrimSpace(nit)
	if nit == "" {
		return entity.DefaultCustomerNIT, ""
	}
	doc, comp, ok := strings.Cut(nit, "-")
	if !ok {
		return nit, ""
	}
	return strings.TrimSpace(doc), strings.TrimSpace(comp)
}
