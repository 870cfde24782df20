package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// BackupRepository acceso en bruto a las tres tablas para exportar y restaurar backups.
// Es la única vía, además del ledger, que escribe el stock de un producto.
// Los Update* devuelven filas afectadas; 0 significa que hay que insertar.
type BackupRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	ListProducts(ctx context.Context) ([]*entity.Product, error)
	ListMovements(ctx context.Context) ([]*entity.StockMovement, error)

	// ClearAll borra movimientos, productos y categorías, en ese orden.
	ClearAll(ctx context.Context) error

	UpdateCategory(ctx context.Context, c *entity.Category) (int64, error)
	UpdateCategoryByName(ctx context.Context, c *entity.Category) (int64, error)
	InsertCategory(ctx context.Context, c *entity.Category) error

	UpdateProduct(ctx context.Context, p *entity.Product) (int64, error)
	InsertProduct(ctx context.Context, p *entity.Product) error

	UpdateMovement(ctx context.Context, m *entity.StockMovement) (int64, error)
	InsertMovement(ctx context.Context, m *entity.StockMovement) error

	// SyncSequences deja las secuencias por encima del mayor ID restaurado.
	SyncSequences(ctx context.Context) error
}
