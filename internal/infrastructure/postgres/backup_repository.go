package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.BackupRepository = (*BackupRepo)(nil)

// BackupRepo acceso en bruto a categorias, productos y movimientos_stock para backup/restore.
// Debe usarse con una tx: la restauración es todo o nada.
type BackupRepo struct {
	q Querier
}

// NewBackupRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBackupRepository(q Querier) *BackupRepo {
	return &BackupRepo{q: q}
}

// ListCategories todas las categorías por id_categoria.
func (r *BackupRepo) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT `+categoryColumns+` FROM categorias ORDER BY id_categoria`)
	if err != nil {
		return nil, fmt.Errorf("backup list categories: %w", err)
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("backup scan category: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListProducts todos los productos por id_producto.
func (r *BackupRepo) ListProducts(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM productos ORDER BY id_producto`)
	if err != nil {
		return nil, fmt.Errorf("backup list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("backup scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListMovements todos los movimientos, más reciente primero.
func (r *BackupRepo) ListMovements(ctx context.Context) ([]*entity.StockMovement, error) {
	return NewStockMovementRepository(r.q).ListAll(ctx)
}

// ClearAll borra movimientos, productos y categorías, en ese orden.
func (r *BackupRepo) ClearAll(ctx context.Context) error {
	for _, table := range []string{"movimientos_stock", "productos", "categorias"} {
		if _, err := r.q.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// UpdateCategory actualiza por id_categoria; fecha_creacion no se toca.
func (r *BackupRepo) UpdateCategory(ctx context.Context, c *entity.Category) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE categorias SET nombre = $2, descripcion = $3, fecha_modificacion = $4
		WHERE id_categoria = $1`,
		c.ID, c.Name, nullString(c.Description), modifiedAt(c.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("restore update category %d: %w", c.ID, err)
	}
	return cmd.RowsAffected(), nil
}

// UpdateCategoryByName actualiza la categoría que ya tiene ese nombre (colisión de nombre único con otro ID).
func (r *BackupRepo) UpdateCategoryByName(ctx context.Context, c *entity.Category) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE categorias SET descripcion = $2, fecha_modificacion = $3
		WHERE nombre = $1`,
		c.Name, nullString(c.Description), modifiedAt(c.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("restore update category %q: %w", c.Name, err)
	}
	return cmd.RowsAffected(), nil
}

// InsertCategory inserta conservando el ID original.
func (r *BackupRepo) InsertCategory(ctx context.Context, c *entity.Category) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO categorias (id_categoria, nombre, descripcion, fecha_creacion, fecha_modificacion)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, nullString(c.Description), createdAt(c.CreatedAt), modifiedAt(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("restore insert category %d: %w", c.ID, err)
	}
	return nil
}

// UpdateProduct actualiza por id_producto, incluido el stock.
func (r *BackupRepo) UpdateProduct(ctx context.Context, p *entity.Product) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE productos SET nombre = $2, categoria = $3, precio = $4, stock = $5, fecha_modificacion = $6
		WHERE id_producto = $1`,
		p.ID, p.Name, p.Category, p.Price, p.Stock, modifiedAt(p.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("restore update product %d: %w", p.ID, err)
	}
	return cmd.RowsAffected(), nil
}

// InsertProduct inserta conservando el ID original.
func (r *BackupRepo) InsertProduct(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO productos (id_producto, nombre, categoria, precio, stock, fecha_creacion, fecha_modificacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Category, p.Price, p.Stock, createdAt(p.CreatedAt), modifiedAt(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("restore insert product %d: %w", p.ID, err)
	}
	return nil
}

// UpdateMovement sobrescribe un movimiento existente. Solo la restauración modifica movimientos.
func (r *BackupRepo) UpdateMovement(ctx context.Context, m *entity.StockMovement) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE movimientos_stock SET id_producto = $2, tipo_movimiento = $3, cantidad = $4,
			stock_anterior = $5, stock_nuevo = $6, motivo = $7, fecha_movimiento = $8, usuario = $9
		WHERE id_movimiento = $1`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.StockBefore, m.StockAfter,
		nullString(m.Reason), createdAt(m.Date), m.User,
	)
	if err != nil {
		return 0, fmt.Errorf("restore update movement %d: %w", m.ID, err)
	}
	return cmd.RowsAffected(), nil
}

// InsertMovement inserta conservando el ID original.
func (r *BackupRepo) InsertMovement(ctx context.Context, m *entity.StockMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO movimientos_stock (id_movimiento, id_producto, tipo_movimiento, cantidad,
			stock_anterior, stock_nuevo, motivo, fecha_movimiento, usuario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.StockBefore, m.StockAfter,
		nullString(m.Reason), createdAt(m.Date), m.User,
	)
	if err != nil {
		return fmt.Errorf("restore insert movement %d: %w", m.ID, err)
	}
	return nil
}

// SyncSequences ajusta las tres secuencias tras insertar con IDs explícitos.
func (r *BackupRepo) SyncSequences(ctx context.Context) error {
	for _, s := range [][2]string{
		{"categorias", "id_categoria"},
		{"productos", "id_producto"},
		{"movimientos_stock", "id_movimiento"},
	} {
		if err := syncSequence(ctx, r.q, s[0], s[1]); err != nil {
			return err
		}
	}
	return nil
}

// createdAt usa la hora actual cuando el documento no trae fecha.
func createdAt(t time.Time) any {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func modifiedAt(t time.Time) any { return createdAt(t) }
