package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
	"github.com/jhoicas/inventario-stock/pkg/logger"
)

// LedgerUseCase registra movimientos de stock de forma transaccional con bloqueo de fila
// (SELECT FOR UPDATE) y es el único camino que modifica Product.Stock en operación normal.
type LedgerUseCase struct {
	txRunner    TxRunner
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
	defaultUser string
	log         *logger.Logger
}

// NewLedgerUseCase construye el caso de uso. movRepo se usa solo para lecturas fuera de tx.
func NewLedgerUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	defaultUser string,
	log *logger.Logger,
) *LedgerUseCase {
	if defaultUser == "" {
		defaultUser = entity.DefaultUser
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:    txRunner,
		movRepo:     movRepo,
		productRepo: productRepo,
		defaultUser: defaultUser,
		log:         log.Named("ledger"),
	}
}

// DefaultUser actor asignado a movimientos sin usuario.
func (uc *LedgerUseCase) DefaultUser() string { return uc.defaultUser }

// RecordMovement registra un movimiento en su propia transacción y devuelve el ID asignado.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, in MovementInput) (int64, error) {
	in = in.normalize(uc.defaultUser)
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		var err error
		id, err = uc.RecordMovementInTx(ctx, movRepo, productRepo, in)
		return err
	})
	if err != nil {
		uc.log.Warn().Err(err).Int64("producto", in.ProductID).Str("tipo", in.Type).Int("cantidad", in.Quantity).
			Msg("movimiento rechazado")
		return 0, err
	}
	uc.log.Info().Int64("movimiento", id).Int64("producto", in.ProductID).Str("tipo", in.Type).
		Int("cantidad", in.Quantity).Str("usuario", in.User).Msg("movimiento registrado")
	return id, nil
}

// RecordMovementInTx aplica un movimiento con los repositorios de la transacción del caller:
// bloquea el producto, calcula stock anterior y nuevo, inserta el movimiento y actualiza el stock.
// No confirma ni revierte; eso es responsabilidad de quien abrió la tx.
func (uc *LedgerUseCase) RecordMovementInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	in MovementInput,
) (int64, error) {
	in = in.normalize(uc.defaultUser)
	if err := in.Validate(); err != nil {
		return 0, err
	}
	product, err := productRepo.GetByIDForUpdate(ctx, in.ProductID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, &domain.NotFoundError{Entity: "Producto", ID: in.ProductID}
	}

	stockAfter, err := inventory.ApplyMovement(product.Stock, in.Type, in.Quantity)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			insufficient.ProductID = product.ID
		}
		return 0, err
	}

	mov := &entity.StockMovement{
		ProductID:   product.ID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		StockBefore: product.Stock,
		StockAfter:  stockAfter,
		Reason:      in.Reason,
		User:        in.User,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return 0, err
	}
	if err := productRepo.UpdateStock(ctx, product.ID, stockAfter); err != nil {
		return 0, err
	}
	return mov.ID, nil
}

// RecordMovementsBatch aplica todos los movimientos en orden dentro de una única transacción.
// Si alguno falla no queda ninguno aplicado y el error indica la posición (desde 1).
func (uc *LedgerUseCase) RecordMovementsBatch(ctx context.Context, inputs []MovementInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	normalized := make([]MovementInput, len(inputs))
	for i, in := range inputs {
		normalized[i] = in.normalize(uc.defaultUser)
		if err := normalized[i].Validate(); err != nil {
			return 0, fmt.Errorf("movimiento %d del lote: %w", i+1, err)
		}
	}

	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		for i, in := range normalized {
			if _, err := uc.RecordMovementInTx(ctx, movRepo, productRepo, in); err != nil {
				return fmt.Errorf("movimiento %d del lote: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(normalized), nil
}
