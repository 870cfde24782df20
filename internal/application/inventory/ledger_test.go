package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/testutil/memstore"
)

func newLedger(t *testing.T) (*inventory.LedgerUseCase, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	uc := inventory.NewLedgerUseCase(store, store.Movements(), store.Products(), "", nil)
	return uc, store
}

func seedProduct(store *memstore.Store, id int64, stock int) {
	store.SeedProduct(entity.Product{ID: id, Name: "Producto", Category: "General", Price: decimal.NewFromInt(10), Stock: stock})
}

func TestRecordMovement_EscenarioProducto5(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger(t)
	seedProduct(store, 5, 10)

	_, err := uc.RecordMovement(ctx, inventory.MovementInput{ProductID: 5, Type: "SALIDA", Quantity: 15})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 15, insufficient.Requested)
	assert.Equal(t, int64(5), insufficient.ProductID)
	assert.Equal(t, "Stock insuficiente. Disponible: 10, Solicitado: 15", err.Error())
	assert.Equal(t, 10, store.Stock(5))
	assert.Equal(t, 0, store.MovementCount())

	id, err := uc.RecordMovement(ctx, inventory.MovementInput{ProductID: 5, Type: "ENTRADA", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 13, store.Stock(5))
	assert.Equal(t, 1, store.MovementCount())

	mov, err := uc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, mov.StockBefore)
	assert.Equal(t, 13, mov.StockAfter)
	assert.Equal(t, entity.DefaultUser, mov.User)
}

func TestRecordMovement_NormalizaEntrada(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger(t)
	seedProduct(store, 1, 4)

	id, err := uc.RecordMovement(ctx, inventory.MovementInput{
		ProductID: 1, Type: "  salida ", Quantity: 4, Reason: "  venta  ", User: " ana ",
	})
	require.NoError(t, err)

	mov, err := uc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementExit, mov.Type)
	assert.Equal(t, "venta", mov.Reason)
	assert.Equal(t, "ana", mov.User)
	assert.Equal(t, 0, store.Stock(1))
}

func TestRecordMovement_ProductoInexistente(t *testing.T) {
	uc, store := newLedger(t)

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{ProductID: 99, Type: "ENTRADA", Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, "Producto no existe con ID: 99", err.Error())
	assert.Equal(t, 0, store.MovementCount())
}

func TestRecordMovement_EntradaInvalidaSinIO(t *testing.T) {
	uc, store := newLedger(t)
	store.FailOn("Movements.Create", errors.New("no debería llegar al almacén"))

	tests := []struct {
		name    string
		in      inventory.MovementInput
		problem string
	}{
		{"cantidad cero", inventory.MovementInput{ProductID: 1, Type: "ENTRADA", Quantity: 0}, "Cantidad debe ser mayor a 0: 0"},
		{"cantidad negativa", inventory.MovementInput{ProductID: 1, Type: "SALIDA", Quantity: -2}, "Cantidad debe ser mayor a 0: -2"},
		{"tipo desconocido", inventory.MovementInput{ProductID: 1, Type: "AJUSTE", Quantity: 1}, "Tipo de movimiento inválido: AJUSTE"},
		{"producto cero", inventory.MovementInput{ProductID: 0, Type: "ENTRADA", Quantity: 1}, "ID de producto inválido: 0"},
		{"cantidad fuera de INTEGER", inventory.MovementInput{ProductID: 1, Type: "ENTRADA", Quantity: 2_147_483_648}, "Cantidad supera el máximo permitido (2147483647): 2147483648"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.RecordMovement(context.Background(), tt.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Problems, tt.problem)
			assert.ErrorIs(t, err, domain.ErrInvalidMovement)
		})
	}
}

func TestRecordMovement_FalloAlActualizarStockRevierte(t *testing.T) {
	uc, store := newLedger(t)
	seedProduct(store, 1, 10)
	store.FailOn("Products.UpdateStock", errors.New("disco lleno"))

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{ProductID: 1, Type: "ENTRADA", Quantity: 5})
	require.Error(t, err)
	assert.Equal(t, 10, store.Stock(1))
	assert.Equal(t, 0, store.MovementCount(), "el movimiento insertado debe revertirse con el stock")
}

func TestRecordMovement_FalloDeCommit(t *testing.T) {
	uc, store := newLedger(t)
	seedProduct(store, 1, 10)
	store.FailCommit(errors.New("conexión perdida"))

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{ProductID: 1, Type: "ENTRADA", Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrTransaction)
	assert.Equal(t, 10, store.Stock(1))
}

func TestRecordMovementsBatch_TodoONada(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger(t)
	seedProduct(store, 1, 5)
	seedProduct(store, 2, 1)

	_, err := uc.RecordMovementsBatch(ctx, []inventory.MovementInput{
		{ProductID: 1, Type: "ENTRADA", Quantity: 5},
		{ProductID: 2, Type: "SALIDA", Quantity: 1},
		{ProductID: 1, Type: "SALIDA", Quantity: 50},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "movimiento 3 del lote")
	assert.Equal(t, 5, store.Stock(1))
	assert.Equal(t, 1, store.Stock(2))
	assert.Equal(t, 0, store.MovementCount())
}

func TestRecordMovementsBatch_OrdenDeEntrada(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger(t)
	seedProduct(store, 1, 0)

	n, err := uc.RecordMovementsBatch(ctx, []inventory.MovementInput{
		{ProductID: 1, Type: "ENTRADA", Quantity: 3},
		{ProductID: 1, Type: "SALIDA", Quantity: 2}, // ve el stock que dejó la fila anterior
		{ProductID: 1, Type: "ENTRADA", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 5, store.Stock(1))

	history, err := uc.ListByProduct(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// cronológico inverso
	assert.Equal(t, 1, history[0].StockBefore)
	assert.Equal(t, 5, history[0].StockAfter)
	assert.Equal(t, 0, history[2].StockBefore)
}

func TestRecordMovementsBatch_ValidaAntesDeAbrirTx(t *testing.T) {
	uc, store := newLedger(t)
	seedProduct(store, 1, 5)

	_, err := uc.RecordMovementsBatch(context.Background(), []inventory.MovementInput{
		{ProductID: 1, Type: "ENTRADA", Quantity: 1},
		{ProductID: 1, Type: "ENTRADA", Quantity: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
	assert.Contains(t, err.Error(), "movimiento 2 del lote")
	assert.Equal(t, 0, store.MovementCount())
}

func TestSummaryYConsultas(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger(t)
	seedProduct(store, 1, 10)

	for _, in := range []inventory.MovementInput{
		{ProductID: 1, Type: "ENTRADA", Quantity: 1},
		{ProductID: 1, Type: "SALIDA", Quantity: 2},
		{ProductID: 1, Type: "SALIDA", Quantity: 3},
	} {
		_, err := uc.RecordMovement(ctx, in)
		require.NoError(t, err)
	}

	sum, err := uc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, inventory.Summary{Total: 3, Entries: 1, Exits: 2}, *sum)

	exits, err := uc.ListByType(ctx, "salida")
	require.NoError(t, err)
	assert.Len(t, exits, 2)

	recent, err := uc.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 3, recent[0].Quantity)

	_, err = uc.ListByType(ctx, "AJUSTE")
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, err = uc.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_EntradaQueDesbordaElStock(t *testing.T) {
	uc, store := newLedger(t)
	seedProduct(store, 1, 2_147_483_000)

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{ProductID: 1, Type: "ENTRADA", Quantity: 2_000})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"el stock resultante supera el máximo permitido (2147483647): 2147483000 + 2000"}, verr.Problems)
	assert.Equal(t, 2_147_483_000, store.Stock(1))
	assert.Zero(t, store.MovementCount())
}
