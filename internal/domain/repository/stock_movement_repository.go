package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// StockMovementRepository puerto del ledger: solo alta y lectura (los movimientos son inmutables).
// Los listados van en orden cronológico inverso.
type StockMovementRepository interface {
	// Create asigna ID y fecha (si viene vacía) al movimiento.
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id int64) (*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error)
	ListByType(ctx context.Context, movementType string) ([]*entity.StockMovement, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.StockMovement, error)
	ListAll(ctx context.Context) ([]*entity.StockMovement, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.StockMovement, error)
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context, movementType string) (int, error)
}
