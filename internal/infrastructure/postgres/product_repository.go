package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id_producto, nombre, categoria, precio, stock, fecha_creacion, fecha_modificacion`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. Si ID > 0 se respeta (carga masiva con id_producto);
// si no, lo asigna la secuencia. Rellena ID y fechas desde RETURNING.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	var row pgx.Row
	if p.ID > 0 {
		row = r.q.QueryRow(ctx, `
			INSERT INTO productos (id_producto, nombre, categoria, precio, stock)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id_producto, fecha_creacion, fecha_modificacion`,
			p.ID, p.Name, p.Category, p.Price, p.Stock)
	} else {
		row = r.q.QueryRow(ctx, `
			INSERT INTO productos (nombre, categoria, precio, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id_producto, fecha_creacion, fecha_modificacion`,
			p.Name, p.Category, p.Price, p.Stock)
	}
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("categoría %q: %w", p.Category, domain.ErrNotFound)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM productos WHERE id_producto = $1`, id)
}

// GetByIDForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE); solo tiene efecto dentro de una tx.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM productos WHERE id_producto = $1 FOR UPDATE`, id)
}

// GetByName obtiene el primer producto con ese nombre exacto.
func (r *ProductRepo) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM productos WHERE nombre = $1 ORDER BY id_producto LIMIT 1`, name)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List lista productos por ID con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM productos ORDER BY id_producto LIMIT $1 OFFSET $2`, limit, offset)
}

// ListByCategory lista los productos de una categoría.
func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM productos WHERE categoria = $1 ORDER BY nombre`, category)
}

// ListLowStock lista los productos con stock por debajo del umbral, menor stock primero.
func (r *ProductRepo) ListLowStock(ctx context.Context, threshold int) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM productos WHERE stock < $1 ORDER BY stock, id_producto`, threshold)
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update actualiza nombre, categoría y precio. No modifica Stock (se maneja vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE productos SET nombre = $2, categoria = $3, precio = $4, fecha_modificacion = now()
		WHERE id_producto = $1`,
		p.ID, p.Name, p.Category, p.Price,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("categoría %q: %w", p.Category, domain.ErrNotFound)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "Producto", ID: p.ID}
	}
	return nil
}

// Delete elimina un producto. Falla con ErrConflict si tiene movimientos.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM productos WHERE id_producto = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "Producto", ID: id}
	}
	return nil
}

// UpdateStock actualiza solo el stock (usado por el ledger).
func (r *ProductRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE productos SET stock = $2, fecha_modificacion = now() WHERE id_producto = $1`,
		id, stock,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "Producto", ID: id}
	}
	return nil
}

// ExistsByName indica si hay algún producto con ese nombre.
func (r *ProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM productos WHERE nombre = $1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists product: %w", err)
	}
	return exists, nil
}

// Count total de productos.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM productos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// SyncSequence ajusta la secuencia de productos al mayor ID existente.
func (r *ProductRepo) SyncSequence(ctx context.Context) error {
	return syncSequence(ctx, r.q, "productos", "id_producto")
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// syncSequence hace que el próximo valor de la secuencia serial sea MAX(id)+1.
func syncSequence(ctx context.Context, q Querier, table, column string) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), COALESCE(MAX(%[2]s), 0) + 1, false) FROM %[1]s`,
		table, column,
	)
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("sync sequence %s: %w", table, err)
	}
	return nil
}
