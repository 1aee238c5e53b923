package entity

import "time"

// Lot lote de inventario de un producto (id de stock en el servicio de inventario).
type Lot struct {
	ID             int64
	BatchNumber    string
	Quantity       int
	ExpirationDate *time.Time
}

// StockSummary existencias totales de un producto y sus lotes, en el orden
// que devuelve inventario (vencimiento más próximo primero).
type StockSummary struct {
	ProductID     int64
	TotalQuantity int
	Lots          []Lot
}

// LotAllocation unidades de una línea de venta que se descuentan de un lote.
type LotAllocation struct {
	LotID       int64
	BatchNumber string
	Quantity    int
}

// Clone copia el resumen para ir restando lo asignado sin tocar el original.
func (s *StockSummary) Clone() *StockSummary {
	cp := *s
	cp.Lots = append([]Lot(nil), s.Lots...)
	return &cp
}

// LotsQuantity suma las existencias que quedan en los lotes.
func (s *StockSummary) LotsQuantity() int {
	n := 0
	for _, l := range s.Lots {
		if l.Quantity > 0 {
			n += l.Quantity
		}
	}
	return n
}

// Allocate reserva quantity sobre lo que queda en los lotes: el primer lote que cubre toda
// la cantidad; si ninguno alcanza, reparte en el orden de los lotes (vencimiento más próximo
// primero). Lo asignado se resta del resumen, así la siguiente línea del mismo producto solo
// ve el remanente. Devuelve false, sin tocar nada, si los lotes no alcanzan.
func (s *StockSummary) Allocate(quantity int) ([]LotAllocation, bool) {
	if quantity > s.LotsQuantity() {
		return nil, false
	}
	for i := range s.Lots {
		if s.Lots[i].Quantity >= quantity {
			return []LotAllocation{s.Lots[i].take(quantity)}, true
		}
	}
	var out []LotAllocation
	left := quantity
	for i := range s.Lots {
		if left == 0 {
			break
		}
		n := min(left, s.Lots[i].Quantity)
		if n <= 0 {
			continue
		}
		out = append(out, s.Lots[i].take(n))
		left -= n
	}
	return out, true
}

// AllocateLot reserva toda la cantidad en el lote indicado. Devuelve false si el lote
// no tiene remanente suficiente.
func (s *StockSummary) AllocateLot(lotID int64, quantity int) (LotAllocation, bool) {
	lot := s.FindLot(lotID)
	if lot == nil || lot.Quantity < quantity {
		return LotAllocation{}, false
	}
	return lot.take(quantity), true
}

func (l *Lot) take(quantity int) LotAllocation {
	l.Quantity -= quantity
	return LotAllocation{LotID: l.ID, BatchNumber: l.BatchNumber, Quantity: quantity}
}

// FindLot busca un lote por id.
func (s *StockSummary) FindLot(id int64) *Lot {
	for i := range s.Lots {
		if s.Lots[i].ID == id {
			return &s.Lots[i]
		}
	}
	return nil
}
