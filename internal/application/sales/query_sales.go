package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saludtotal/farmacia-ventas/internal/application/dto"
	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// QuerySalesUseCase consultas de ventas (detalle, listado y estadísticas).
type QuerySalesUseCase struct {
	saleRepo repository.SaleRepository
	loc      *time.Location
}

// NewQuerySalesUseCase construye el caso de uso. loc es la zona de las fechas de filtro.
func NewQuerySalesUseCase(saleRepo repository.SaleRepository, loc *time.Location) *QuerySalesUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &QuerySalesUseCase{saleRepo: saleRepo, loc: loc}
}

// GetSale obtiene una venta con sus líneas.
func (uc *QuerySalesUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	return uc.single(sale, err)
}

// GetSaleByNumber obtiene una venta por su número (YYYYMMDD####).
func (uc *QuerySalesUseCase) GetSaleByNumber(ctx context.Context, number string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByNumber(ctx, number)
	return uc.single(sale, err)
}

func (uc *QuerySalesUseCase) single(sale *entity.Sale, err error) (*dto.SaleResponse, error) {
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales lista ventas paginadas, las más recientes primero.
func (uc *QuerySalesUseCase) ListSales(ctx context.Context, q dto.ListSalesQuery) (*dto.SaleListResponse, error) {
	q.DefaultPage()
	from, to, err := uc.parseRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	list, total, err := uc.saleRepo.List(ctx, repository.SaleFilter{Page: q.Page, Limit: q.Limit, From: from, To: to})
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{
		Data: make([]dto.SaleResponse, 0, len(list)),
		Meta: dto.NewPageResponse(total, q.PageRequest),
	}
	for _, s := range list {
		resp.Data = append(resp.Data, ToSaleResponse(s))
	}
	return resp, nil
}

// Statistics agrega las ventas completadas del rango.
func (uc *QuerySalesUseCase) Statistics(ctx context.Context, q dto.StatisticsQuery) (*dto.SaleStatisticsResponse, error) {
	from, to, err := uc.parseRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	st, err := uc.saleRepo.Statistics(ctx, repository.SaleFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleStatisticsResponse{
		TotalSales:      st.TotalSales,
		TotalRevenue:    st.TotalRevenue.Round(2),
		AverageSale:     decimal.Zero,
		ByPaymentMethod: make(map[string]dto.PaymentMethodStatsResponse, len(st.ByPaymentMethod)),
	}
	if st.TotalSales > 0 {
		resp.AverageSale = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalSales))).Round(2)
	}
	for method, m := range st.ByPaymentMethod {
		resp.ByPaymentMethod[method] = dto.PaymentMethodStatsResponse{Count: m.Count, Total: m.Total.Round(2)}
	}
	return resp, nil
}

// parseRange interpreta fechas YYYY-MM-DD; el fin es inclusivo (se devuelve el día siguiente, exclusivo).
func (uc *QuerySalesUseCase) parseRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, uc.loc)
		if err != nil {
			return nil, nil, domain.Invalid("startDate", "formato esperado YYYY-MM-DD")
		}
		from = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, uc.loc)
		if err != nil {
			return nil, nil, domain.Invalid("endDate", "formato esperado YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, domain.Invalid("startDate", "debe ser anterior o igual a endDate")
	}
	return from, to, nil
}
