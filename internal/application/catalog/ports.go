package catalog

import (
	"context"

	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

// TxRunner transacción con los repos de catálogo y ledger (alta de producto + stock inicial).
type TxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		catRepo repository.CategoryRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// StockRecorder primitiva del ledger dentro de una tx ajena. Lo implementa inventory.LedgerUseCase.
type StockRecorder interface {
	RecordMovementInTx(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		in inventory.MovementInput,
	) (int64, error)
}
