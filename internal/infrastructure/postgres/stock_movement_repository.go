package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id_movimiento, id_producto, tipo_movimiento, cantidad, stock_anterior, stock_nuevo, motivo, fecha_movimiento, usuario`

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee: no hay UPDATE ni DELETE de movimientos en operación normal.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento. Si Date es cero, la fecha la asigna la BD (now()).
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	var date *time.Time
	if !m.Date.IsZero() {
		date = &m.Date
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO movimientos_stock (id_producto, tipo_movimiento, cantidad, stock_anterior, stock_nuevo, motivo, usuario, fecha_movimiento)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
		RETURNING id_movimiento, fecha_movimiento`,
		m.ProductID, m.Type, m.Quantity, m.StockBefore, m.StockAfter, nullString(m.Reason), m.User, date,
	).Scan(&m.ID, &m.Date)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Entity: "Producto", ID: m.ProductID}
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id int64) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movimientos_stock WHERE id_movimiento = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// ListByProduct historial de un producto, más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE id_producto = $1 ORDER BY fecha_movimiento DESC, id_movimiento DESC`, productID)
}

// ListByType movimientos de un tipo (ENTRADA | SALIDA).
func (r *StockMovementRepo) ListByType(ctx context.Context, movementType string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE tipo_movimiento = $1 ORDER BY fecha_movimiento DESC, id_movimiento DESC`, movementType)
}

// ListByDateRange movimientos con fecha en [from, to].
func (r *StockMovementRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE fecha_movimiento BETWEEN $1 AND $2 ORDER BY fecha_movimiento DESC, id_movimiento DESC`, from, to)
}

// ListAll todos los movimientos.
func (r *StockMovementRepo) ListAll(ctx context.Context) ([]*entity.StockMovement, error) {
	return r.list(ctx, `ORDER BY fecha_movimiento DESC, id_movimiento DESC`)
}

// ListRecent los últimos limit movimientos.
func (r *StockMovementRepo) ListRecent(ctx context.Context, limit int) ([]*entity.StockMovement, error) {
	return r.list(ctx, `ORDER BY fecha_movimiento DESC, id_movimiento DESC LIMIT $1`, limit)
}

func (r *StockMovementRepo) list(ctx context.Context, tail string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM movimientos_stock `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count total de movimientos.
func (r *StockMovementRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos_stock`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

// CountByType total de movimientos de un tipo.
func (r *StockMovementRepo) CountByType(ctx context.Context, movementType string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos_stock WHERE tipo_movimiento = $1`, movementType).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements by type: %w", err)
	}
	return n, nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var reason *string
	if err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.StockBefore, &m.StockAfter,
		&reason, &m.Date, &m.User); err != nil {
		return nil, err
	}
	m.Reason = derefString(reason)
	return &m, nil
}
