package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) categoryExists(name string) bool {
	for _, c := range r.s.st.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Products.Create"); err != nil {
		return err
	}
	if !r.categoryExists(p.Category) {
		return fmt.Errorf("categoría %q: %w", p.Category, domain.ErrNotFound)
	}
	if p.ID > 0 {
		if _, ok := r.s.st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
	} else {
		p.ID = r.s.nextID("productos")
		for _, ok := r.s.st.products[p.ID]; ok; _, ok = r.s.st.products[p.ID] {
			p.ID = r.s.nextID("productos")
		}
	}
	now := r.s.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) GetByName(_ context.Context, name string) (*entity.Product, error) {
	list := r.filter(func(p entity.Product) bool { return p.Name == name })
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *ProductRepo) filter(keep func(entity.Product) bool) []*entity.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.st.products {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	all := r.filter(func(entity.Product) bool { return true })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *ProductRepo) ListByCategory(_ context.Context, category string) ([]*entity.Product, error) {
	list := r.filter(func(p entity.Product) bool { return p.Category == category })
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *ProductRepo) ListLowStock(_ context.Context, threshold int) ([]*entity.Product, error) {
	list := r.filter(func(p entity.Product) bool { return p.Stock < threshold })
	sort.SliceStable(list, func(i, j int) bool { return list[i].Stock < list[j].Stock })
	return list, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.products[p.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "Producto", ID: p.ID}
	}
	if !r.categoryExists(p.Category) {
		return fmt.Errorf("categoría %q: %w", p.Category, domain.ErrNotFound)
	}
	cur.Name, cur.Category, cur.Price = p.Name, p.Category, p.Price
	cur.UpdatedAt = r.s.tick()
	r.s.st.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.products[id]; !ok {
		return &domain.NotFoundError{Entity: "Producto", ID: id}
	}
	for _, m := range r.s.st.movements {
		if m.ProductID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.st.products, id)
	return nil
}

func (r *ProductRepo) UpdateStock(_ context.Context, id int64, stock int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Products.UpdateStock"); err != nil {
		return err
	}
	p, ok := r.s.st.products[id]
	if !ok {
		return &domain.NotFoundError{Entity: "Producto", ID: id}
	}
	if stock < 0 {
		return fmt.Errorf("update product stock: check constraint stock >= 0")
	}
	p.Stock = stock
	p.UpdatedAt = r.s.tick()
	r.s.st.products[id] = p
	return nil
}

func (r *ProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	p, _ := r.GetByName(ctx, name)
	return p != nil, nil
}

func (r *ProductRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.products), nil
}

func (r *ProductRepo) SyncSequence(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id := range r.s.st.products {
		r.s.bumpSeq("productos", id)
	}
	return nil
}
