package backup

import (
	"context"

	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

// TxRunner transacciones del motor de backup.
type TxRunner interface {
	// RunBackup transacción de escritura: toda la restauración se confirma o se revierte junta.
	RunBackup(ctx context.Context, fn func(backupRepo repository.BackupRepository) error) error
	// RunSnapshot transacción de solo lectura con una vista consistente de las tres tablas.
	RunSnapshot(ctx context.Context, fn func(backupRepo repository.BackupRepository) error) error
}
