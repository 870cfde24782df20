package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

// Ensure TxRunner implements los runners de ledger, catálogo y backup.
var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ catalog.TxRunner   = (*TxRunner)(nil)
	_ backup.TxRunner    = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// El Rollback diferido devuelve siempre la conexión al pool, también tras un Commit.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx abre la tx con opts, ejecuta fn y hace Commit; cualquier error deja la tx revertida.
func (r *TxRunner) inTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return &domain.TransactionError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.TransactionError{Op: "commit", Err: err}
	}
	return nil
}

// Run ejecuta fn con los repos del ledger atados a la tx (un movimiento o un lote).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewProductRepository(tx))
	})
}

// RunCatalog tx con categorías, productos y movimientos (alta de producto + stock inicial).
func (r *TxRunner) RunCatalog(ctx context.Context, fn func(
	catRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewCategoryRepository(tx), NewProductRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunBackup tx de escritura para una restauración completa.
func (r *TxRunner) RunBackup(ctx context.Context, fn func(backupRepo repository.BackupRepository) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewBackupRepository(tx))
	})
}

// RunSnapshot tx de solo lectura en REPEATABLE READ: las tres listas ven el mismo estado.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(backupRepo repository.BackupRepository) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.inTx(ctx, opts, func(tx pgx.Tx) error {
		return fn(NewBackupRepository(tx))
	})
}
