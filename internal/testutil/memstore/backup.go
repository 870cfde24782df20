package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.BackupRepository = (*BackupRepo)(nil)

// BackupRepo acceso en bruto para backup/restore en memoria.
type BackupRepo struct{ s *Store }

func (r *BackupRepo) ListCategories(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Category, 0, len(r.s.st.categories))
	for _, c := range r.s.st.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BackupRepo) ListProducts(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0, len(r.s.st.products))
	for _, p := range r.s.st.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BackupRepo) ListMovements(_ context.Context) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedMovements(r.s.st.movements, nil), nil
}

func (r *BackupRepo) ClearAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Backup.ClearAll"); err != nil {
		return err
	}
	r.s.st.movements = map[int64]entity.StockMovement{}
	r.s.st.products = map[int64]entity.Product{}
	r.s.st.categories = map[int64]entity.Category{}
	return nil
}

func (r *BackupRepo) UpdateCategory(_ context.Context, c *entity.Category) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.categories[c.ID]; !ok {
		return 0, nil
	}
	if err := r.s.renameCategory(c.ID, c.Name, c.Description, c.UpdatedAt); err != nil {
		return 0, fmt.Errorf("restore update category %d: %w", c.ID, err)
	}
	return 1, nil
}

func (r *BackupRepo) UpdateCategoryByName(_ context.Context, c *entity.Category) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, cur := range r.s.st.categories {
		if cur.Name == c.Name {
			cur.Description, cur.UpdatedAt = c.Description, c.UpdatedAt
			r.s.st.categories[id] = cur
			return 1, nil
		}
	}
	return 0, nil
}

func (r *BackupRepo) InsertCategory(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.categories[c.ID]; ok {
		return fmt.Errorf("restore insert category %d: %w", c.ID, domain.ErrDuplicate)
	}
	for _, cur := range r.s.st.categories {
		if cur.Name == c.Name {
			return fmt.Errorf("restore insert category %d: %w", c.ID, domain.ErrDuplicate)
		}
	}
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r *BackupRepo) UpdateProduct(_ context.Context, p *entity.Product) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.products[p.ID]
	if !ok {
		return 0, nil
	}
	if !(&ProductRepo{s: r.s}).categoryExists(p.Category) {
		return 0, fmt.Errorf("restore update product %d: categoría %q: %w", p.ID, p.Category, domain.ErrNotFound)
	}
	cur.Name, cur.Category, cur.Price, cur.Stock, cur.UpdatedAt = p.Name, p.Category, p.Price, p.Stock, p.UpdatedAt
	r.s.st.products[p.ID] = cur
	return 1, nil
}

func (r *BackupRepo) InsertProduct(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Backup.InsertProduct"); err != nil {
		return err
	}
	if _, ok := r.s.st.products[p.ID]; ok {
		return fmt.Errorf("restore insert product %d: %w", p.ID, domain.ErrDuplicate)
	}
	if !(&ProductRepo{s: r.s}).categoryExists(p.Category) {
		return fmt.Errorf("restore insert product %d: categoría %q: %w", p.ID, p.Category, domain.ErrNotFound)
	}
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *BackupRepo) UpdateMovement(_ context.Context, m *entity.StockMovement) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.movements[m.ID]; !ok {
		return 0, nil
	}
	if _, ok := r.s.st.products[m.ProductID]; !ok {
		return 0, fmt.Errorf("restore update movement %d: %w", m.ID, &domain.NotFoundError{Entity: "Producto", ID: m.ProductID})
	}
	r.s.st.movements[m.ID] = *m
	return 1, nil
}

func (r *BackupRepo) InsertMovement(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.products[m.ProductID]; !ok {
		return fmt.Errorf("restore insert movement %d: %w", m.ID, &domain.NotFoundError{Entity: "Producto", ID: m.ProductID})
	}
	r.s.st.movements[m.ID] = *m
	return nil
}

func (r *BackupRepo) SyncSequences(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id := range r.s.st.categories {
		r.s.bumpSeq("categorias", id)
	}
	for id := range r.s.st.products {
		r.s.bumpSeq("productos", id)
	}
	for id := range r.s.st.movements {
		r.s.bumpSeq("movimientos_stock", id)
	}
	return nil
}
