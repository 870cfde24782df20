package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID / GetByName devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*entity.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]*entity.Product, error)
	// Update no modifica Stock (se maneja vía movimientos).
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) error
	// UpdateStock solo debe llamarse desde el ledger.
	UpdateStock(ctx context.Context, id int64, stock int) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
	// SyncSequence ajusta la secuencia de IDs tras insertar IDs explícitos.
	SyncSequence(ctx context.Context) error
}
