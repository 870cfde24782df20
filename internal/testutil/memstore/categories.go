package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo categorías en memoria.
type CategoryRepo struct{ s *Store }

func (r *CategoryRepo) byName(name string) (entity.Category, bool) {
	for _, c := range r.s.st.categories {
		if c.Name == name {
			return c, true
		}
	}
	return entity.Category{}, false
}

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Categories.Create"); err != nil {
		return err
	}
	if _, ok := r.byName(c.Name); ok {
		return domain.ErrDuplicate
	}
	c.ID = r.s.nextID("categorias")
	for _, ok := r.s.st.categories[c.ID]; ok; _, ok = r.s.st.categories[c.ID] {
		c.ID = r.s.nextID("categorias")
	}
	now := r.s.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.byName(name)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Category, 0, len(r.s.st.categories))
	for _, c := range r.s.st.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepo) Update(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.categories[c.ID]; !ok {
		return &domain.NotFoundError{Entity: "Categoría", ID: c.ID}
	}
	return r.s.renameCategory(c.ID, c.Name, c.Description, r.s.tick())
}

func (r *CategoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.categories[id]
	if !ok {
		return &domain.NotFoundError{Entity: "Categoría", ID: id}
	}
	for _, p := range r.s.st.products {
		if p.Category == c.Name {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.s.st.categories, id)
	return nil
}

func (r *CategoryRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.byName(name)
	return ok, nil
}

func (r *CategoryRepo) CountProducts(_ context.Context, name string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.st.products {
		if p.Category == name {
			n++
		}
	}
	return n, nil
}

func (r *CategoryRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.categories), nil
}

// renameCategory aplica nombre y descripción propagando el nombre a productos (ON UPDATE CASCADE).
// Requiere s.mu tomado.
func (s *Store) renameCategory(id int64, name, description string, modified time.Time) error {
	cur := s.st.categories[id]
	for otherID, other := range s.st.categories {
		if otherID != id && other.Name == name {
			return domain.ErrDuplicate
		}
	}
	if cur.Name != name {
		for pid, p := range s.st.products {
			if p.Category == cur.Name {
				p.Category = name
				s.st.products[pid] = p
			}
		}
	}
	cur.Name, cur.Description, cur.UpdatedAt = name, description, modified
	s.st.categories[id] = cur
	return nil
}
