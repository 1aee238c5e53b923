package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, sale_number, customer_id, customer_name, customer_nit, status, stock_status,
	payment_method, subtotal, discount, tax, total, notes, user_id, user_name, created_at, updated_at`

const saleItemColumns = `id, sale_id, product_id, product_sku, product_name, quantity, unit_price,
	subtotal, discount, total, lot_id, batch_number`

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas. Debe llamarse dentro de una tx para que sea atómico.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		s.ID, s.SaleNumber, s.CustomerID, s.CustomerName, s.CustomerNIT, s.Status, s.StockStatus,
		s.PaymentMethod, s.Subtotal, s.Discount, s.Tax, s.Total, nullIfEmpty(s.Notes),
		s.UserID, s.UserName, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sale number %s already exists: %w", s.SaleNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for i, it := range s.Items {
		_, err := r.q.Exec(ctx, `INSERT INTO sale_items (`+saleItemColumns+`, line_no)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			it.ID, s.ID, it.ProductID, it.ProductSKU, it.ProductName, it.Quantity, it.UnitPrice,
			it.Subtotal, it.Discount, it.Total, it.LotID, nullIfEmpty(it.BatchNumber), i+1,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetByNumber obtiene la venta por número; nil, nil si no existe.
func (r *SaleRepo) GetByNumber(ctx context.Context, saleNumber string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE sale_number = $1`, saleNumber)
}

// GetForUpdate como GetByID pero bloqueando la fila (SELECT ... FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) getOne(ctx context.Context, query string, arg any) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	items, err := r.itemsBySales(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Items = items[s.ID]
	return s, nil
}

// UpdateStatus persiste estado, notas y fecha de actualización.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		s.ID, s.Status, nullIfEmpty(s.Notes), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStockStatus actualiza el resumen del descuento de stock.
func (r *SaleRepo) UpdateStockStatus(ctx context.Context, saleID, stockStatus string) error {
	_, err := r.q.Exec(ctx, `UPDATE sales SET stock_status = $2, updated_at = NOW() WHERE id = $1`, saleID, stockStatus)
	if err != nil {
		return fmt.Errorf("update sale stock status: %w", err)
	}
	return nil
}

// List devuelve la página pedida (más recientes primero) y el total de filas del filtro.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	where, args := rangeClause(f, "")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sales`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sales%s ORDER BY created_at DESC, sale_number DESC LIMIT $%d OFFSET $%d`,
		saleColumns, where, len(args)+1, len(args)+2)
	rows, err := r.q.Query(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var list []*entity.Sale
	var ids []string
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}

	items, err := r.itemsBySales(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range list {
		s.Items = items[s.ID]
	}
	return list, total, nil
}

// Statistics cantidad e importe de ventas COMPLETED del rango, total y por método de pago.
func (r *SaleRepo) Statistics(ctx context.Context, f repository.SaleFilter) (*entity.SaleStatistics, error) {
	where, args := rangeClause(f, entity.SaleStatusCompleted)
	rows, err := r.q.Query(ctx, `SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
		FROM sales`+where+` GROUP BY payment_method`, args...)
	if err != nil {
		return nil, fmt.Errorf("sale statistics: %w", err)
	}
	defer rows.Close()

	st := &entity.SaleStatistics{
		TotalRevenue:    decimal.Zero,
		ByPaymentMethod: map[string]entity.PaymentMethodStats{},
	}
	for rows.Next() {
		var method string
		var m entity.PaymentMethodStats
		if err := rows.Scan(&method, &m.Count, &m.Total); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		st.ByPaymentMethod[method] = m
		st.TotalSales += m.Count
		st.TotalRevenue = st.TotalRevenue.Add(m.Total)
	}
	return st, rows.Err()
}

func (r *SaleRepo) itemsBySales(ctx context.Context, saleIDs []string) (map[string][]*entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+saleItemColumns+` FROM sale_items
		WHERE sale_id = ANY($1) ORDER BY sale_id, line_no`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]*entity.SaleItem, len(saleIDs))
	for rows.Next() {
		var it entity.SaleItem
		var batch *string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductSKU, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.Subtotal, &it.Discount, &it.Total, &it.LotID, &batch); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		it.BatchNumber = derefStr(batch)
		out[it.SaleID] = append(out[it.SaleID], &it)
	}
	return out, rows.Err()
}

// rangeClause arma el WHERE por fechas [From, To) y, opcionalmente, por estado.
func rangeClause(f repository.SaleFilter, status string) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if status != "" {
		add("status = $%d", status)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var notes *string
	err := row.Scan(&s.ID, &s.SaleNumber, &s.CustomerID, &s.CustomerName, &s.CustomerNIT, &s.Status, &s.StockStatus,
		&s.PaymentMethod, &s.Subtotal, &s.Discount, &s.Tax, &s.Total, &notes,
		&s.UserID, &s.UserName, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Notes = derefStr(notes)
	return &s, nil
}
