package sales_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/entity"
	"github.com/saludtotal/farmacia-ventas/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Colaboradores externos en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeCatalog struct {
	products map[int64]*entity.Product
	delay    time.Duration
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("catálogo: %v: %w", ctx.Err(), domain.ErrUpstreamUnavailable)
		}
	}
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeInventory struct {
	mu        sync.Mutex
	stocks    map[int64]*entity.StockSummary
	failLots  map[int64]error // lote → error devuelto por DecrementStock
	decrement []entity.StockDecrementCommand
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{stocks: map[int64]*entity.StockSummary{}, failLots: map[int64]error{}}
}

func (f *fakeInventory) GetStock(_ context.Context, productID int64) (*entity.StockSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stocks[productID]
	if !ok {
		return &entity.StockSummary{ProductID: productID}, nil
	}
	cp := *s
	cp.Lots = append([]entity.Lot(nil), s.Lots...)
	return &cp, nil
}

func (f *fakeInventory) DecrementStock(_ context.Context, cmd entity.StockDecrementCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failLots[cmd.LotID]; ok && err != nil {
		return err
	}
	f.decrement = append(f.decrement, cmd)
	return nil
}

func (f *fakeInventory) setFailure(lotID int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failLots[lotID] = err
}

func (f *fakeInventory) commands() []entity.StockDecrementCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.StockDecrementCommand(nil), f.decrement...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Persistencia en memoria con transacciones (staging + commit)
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	txMu        sync.Mutex // serializa transacciones (equivale al bloqueo de fila)
	mu          sync.Mutex
	sales       map[string]*entity.Sale
	adjustments map[string]*entity.StockAdjustment
}

func newMemStore() *memStore {
	return &memStore{sales: map[string]*entity.Sale{}, adjustments: map[string]*entity.StockAdjustment{}}
}

func cloneSale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = nil
	for _, it := range s.Items {
		ic := *it
		cp.Items = append(cp.Items, &ic)
	}
	return &cp
}

func (m *memStore) RunSales(ctx context.Context, fn func(repository.SaleRepository, repository.StockAdjustmentRepository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	tx := &memTx{store: m}
	if err := fn(tx, memTxAdjustments{tx}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range tx.sales {
		m.sales[s.ID] = s
	}
	for _, a := range tx.adjustments {
		m.adjustments[a.ID] = a
	}
	return nil
}

func (m *memStore) saleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}

func (m *memStore) adjustmentsOf(saleID string) []*entity.StockAdjustment {
	list, _ := m.ListBySale(context.Background(), saleID)
	return list
}

// Repos fuera de transacción (usados por el committer y las consultas).

func (m *memStore) Create(_ context.Context, s *entity.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = cloneSale(s)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	return cloneSale(s), nil
}

func (m *memStore) GetByNumber(_ context.Context, number string) (*entity.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.SaleNumber == number {
			return cloneSale(s), nil
		}
	}
	return nil, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return m.GetByID(ctx, id)
}

func (m *memStore) UpdateStatus(_ context.Context, s *entity.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = cloneSale(s)
	return nil
}

func (m *memStore) UpdateStockStatus(_ context.Context, saleID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sales[saleID]; ok {
		s.StockStatus = status
	}
	return nil
}

func (m *memStore) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Sale
	for _, s := range m.sales {
		if f.From != nil && s.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, cloneSale(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleNumber > out[j].SaleNumber })
	total := len(out)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if f.Limit == 0 || end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *memStore) Statistics(ctx context.Context, f repository.SaleFilter) (*entity.SaleStatistics, error) {
	all, _, _ := m.List(ctx, repository.SaleFilter{From: f.From, To: f.To})
	st := &entity.SaleStatistics{TotalRevenue: decimal.Zero, ByPaymentMethod: map[string]entity.PaymentMethodStats{}}
	for _, s := range all {
		if s.Status != entity.SaleStatusCompleted {
			continue
		}
		st.TotalSales++
		st.TotalRevenue = st.TotalRevenue.Add(s.Total)
		pm := st.ByPaymentMethod[s.PaymentMethod]
		pm.Count++
		pm.Total = pm.Total.Add(s.Total)
		st.ByPaymentMethod[s.PaymentMethod] = pm
	}
	return st, nil
}

func (m *memStore) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*entity.StockAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*entity.StockAdjustment
	for _, a := range m.adjustments {
		if a.Status == entity.AdjustmentPending && !a.NextAttemptAt.After(now) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	out := make([]*entity.StockAdjustment, 0, len(due))
	for _, a := range due {
		a.NextAttemptAt = now.Add(lease)
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListBySale(_ context.Context, saleID string) ([]*entity.StockAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StockAdjustment
	for _, a := range m.adjustments {
		if a.SaleID == saleID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotID < out[j].LotID })
	return out, nil
}

func (m *memStore) SaveAttempt(_ context.Context, a *entity.StockAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.adjustments[a.ID] = &cp
	return nil
}

// memStoreAdjustments expone el store como StockAdjustmentRepository.
type memStoreAdjustments struct{ *memStore }

func (m memStoreAdjustments) Create(_ context.Context, a *entity.StockAdjustment) error {
	return m.SaveAttempt(context.Background(), a)
}

func (m *memStore) adjustmentRepo() repository.StockAdjustmentRepository {
	return memStoreAdjustments{m}
}

func (m *memStore) stockStatus(saleID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sales[saleID].StockStatus
}

// memTx acumula escrituras hasta el commit.
type memTx struct {
	store       *memStore
	sales       []*entity.Sale
	adjustments []*entity.StockAdjustment
}

func (t *memTx) Create(ctx context.Context, s *entity.Sale) error {
	if existing, _ := t.store.GetByNumber(ctx, s.SaleNumber); existing != nil {
		return domain.ErrDuplicate
	}
	t.sales = append(t.sales, cloneSale(s))
	return nil
}

func (t *memTx) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return t.store.GetByID(ctx, id)
}

func (t *memTx) GetByNumber(ctx context.Context, n string) (*entity.Sale, error) {
	return t.store.GetByNumber(ctx, n)
}

func (t *memTx) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return t.store.GetByID(ctx, id)
}

func (t *memTx) UpdateStatus(_ context.Context, s *entity.Sale) error {
	t.sales = append(t.sales, cloneSale(s))
	return nil
}

func (t *memTx) UpdateStockStatus(ctx context.Context, id, status string) error {
	return t.store.UpdateStockStatus(ctx, id, status)
}

func (t *memTx) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	return t.store.List(ctx, f)
}

func (t *memTx) Statistics(ctx context.Context, f repository.SaleFilter) (*entity.SaleStatistics, error) {
	return t.store.Statistics(ctx, f)
}

func (t *memTx) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*entity.StockAdjustment, error) {
	return t.store.ClaimDue(ctx, now, lease, limit)
}

func (t *memTx) ListBySale(ctx context.Context, id string) ([]*entity.StockAdjustment, error) {
	return t.store.ListBySale(ctx, id)
}

func (t *memTx) SaveAttempt(ctx context.Context, a *entity.StockAdjustment) error {
	return t.store.SaveAttempt(ctx, a)
}

// memTxAdjustments expone la tx como StockAdjustmentRepository (Create de ajustes).
type memTxAdjustments struct{ *memTx }

func (t memTxAdjustments) Create(_ context.Context, a *entity.StockAdjustment) error {
	cp := *a
	t.adjustments = append(t.adjustments, &cp)
	return nil
}

// Contador en memoria.
type memCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func (c *memCounters) Next(_ context.Context, scope string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = map[string]int64{}
	}
	c.values[scope]++
	return c.values[scope], nil
}

// Métricas registradas.
type recordedMetrics struct {
	mu          sync.Mutex
	finalized   []string
	rejected    []string
	adjustments []string
}

func (r *recordedMetrics) SaleFinalized(m string) {
	r.mu.Lock()
	r.finalized = append(r.finalized, m)
	r.mu.Unlock()
}

func (r *recordedMetrics) SaleRejected(k string) {
	r.mu.Lock()
	r.rejected = append(r.rejected, k)
	r.mu.Unlock()
}

func (r *recordedMetrics) StockAdjustment(res string) {
	r.mu.Lock()
	r.adjustments = append(r.adjustments, res)
	r.mu.Unlock()
}
