package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// Summary conteos del ledger por tipo.
type Summary struct {
	Total   int
	Entries int
	Exits   int
}

// GetByID devuelve un movimiento; NotFoundError si no existe.
func (uc *LedgerUseCase) GetByID(ctx context.Context, id int64) (*entity.StockMovement, error) {
	m, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &domain.NotFoundError{Entity: "Movimiento", ID: id}
	}
	return m, nil
}

// ListByProduct historial de un producto, más reciente primero.
func (uc *LedgerUseCase) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByProduct(ctx, productID)
}

// ListByType movimientos de un tipo; acepta minúsculas.
func (uc *LedgerUseCase) ListByType(ctx context.Context, movementType string) ([]*entity.StockMovement, error) {
	t := strings.ToUpper(strings.TrimSpace(movementType))
	if !entity.IsValidMovementType(t) {
		return nil, &domain.ValidationError{Problems: []string{"Tipo de movimiento inválido: " + movementType}}
	}
	return uc.movRepo.ListByType(ctx, t)
}

// ListByDateRange movimientos entre from y to (inclusive).
func (uc *LedgerUseCase) ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.StockMovement, error) {
	if to.Before(from) {
		return nil, errors.Join(domain.ErrInvalidInput, errors.New("la fecha final es anterior a la inicial"))
	}
	return uc.movRepo.ListByDateRange(ctx, from, to)
}

// ListAll todos los movimientos, más reciente primero.
func (uc *LedgerUseCase) ListAll(ctx context.Context) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListAll(ctx)
}

// ListRecent los últimos n movimientos.
func (uc *LedgerUseCase) ListRecent(ctx context.Context, n int) ([]*entity.StockMovement, error) {
	if n <= 0 {
		n = 10
	}
	return uc.movRepo.ListRecent(ctx, n)
}

// Count total de movimientos.
func (uc *LedgerUseCase) Count(ctx context.Context) (int, error) {
	return uc.movRepo.Count(ctx)
}

// CountByType total de movimientos de un tipo.
func (uc *LedgerUseCase) CountByType(ctx context.Context, movementType string) (int, error) {
	return uc.movRepo.CountByType(ctx, strings.ToUpper(strings.TrimSpace(movementType)))
}

// Summary total, entradas y salidas.
func (uc *LedgerUseCase) Summary(ctx context.Context) (*Summary, error) {
	total, err := uc.movRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := uc.movRepo.CountByType(ctx, entity.MovementEntry)
	if err != nil {
		return nil, err
	}
	exits, err := uc.movRepo.CountByType(ctx, entity.MovementExit)
	if err != nil {
		return nil, err
	}
	return &Summary{Total: total, Entries: entries, Exits: exits}, nil
}
