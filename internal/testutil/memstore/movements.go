package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Movements.Create"); err != nil {
		return err
	}
	if _, ok := r.s.st.products[m.ProductID]; !ok {
		return &domain.NotFoundError{Entity: "Producto", ID: m.ProductID}
	}
	m.ID = r.s.nextID("movimientos_stock")
	for _, ok := r.s.st.movements[m.ID]; ok; _, ok = r.s.st.movements[m.ID] {
		m.ID = r.s.nextID("movimientos_stock")
	}
	if m.Date.IsZero() {
		m.Date = r.s.tick()
	}
	r.s.st.movements[m.ID] = *m
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id int64) (*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.st.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MovementRepo) list(keep func(entity.StockMovement) bool) []*entity.StockMovement {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedMovements(r.s.st.movements, keep)
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID int64) ([]*entity.StockMovement, error) {
	return r.list(func(m entity.StockMovement) bool { return m.ProductID == productID }), nil
}

func (r *MovementRepo) ListByType(_ context.Context, movementType string) ([]*entity.StockMovement, error) {
	return r.list(func(m entity.StockMovement) bool { return m.Type == movementType }), nil
}

func (r *MovementRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]*entity.StockMovement, error) {
	return r.list(func(m entity.StockMovement) bool {
		return !m.Date.Before(from) && !m.Date.After(to)
	}), nil
}

func (r *MovementRepo) ListAll(_ context.Context) ([]*entity.StockMovement, error) {
	return r.list(nil), nil
}

func (r *MovementRepo) ListRecent(_ context.Context, limit int) ([]*entity.StockMovement, error) {
	all := r.list(nil)
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MovementRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.movements), nil
}

func (r *MovementRepo) CountByType(_ context.Context, movementType string) (int, error) {
	return len(r.list(func(m entity.StockMovement) bool { return m.Type == movementType })), nil
}
