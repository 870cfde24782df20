package importer_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/testutil/memstore"
)

func setup(t *testing.T, lotSize int) (*importer.Importer, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	store.SeedProduct(entity.Product{ID: 1, Name: "Tornillo", Category: "Ferretería", Price: decimal.NewFromInt(1), Stock: 0})
	store.SeedProduct(entity.Product{ID: 2, Name: "Tuerca", Category: "Ferretería", Price: decimal.NewFromInt(1), Stock: 10})
	ledger := inventory.NewLedgerUseCase(store, store.Movements(), store.Products(), "", nil)
	return importer.New(ledger, importer.Options{LotSize: lotSize}, nil), store
}

func TestImportCSV_LoteFallidoNoAfectaALosDemas(t *testing.T) {
	im, store := setup(t, 100)

	var sb strings.Builder
	sb.WriteString("id_producto,tipo_movimiento,cantidad,motivo,usuario\n")
	for i := 1; i <= 250; i++ {
		id := 1
		if i == 150 {
			id = 999
		}
		fmt.Fprintf(&sb, "%d,ENTRADA,1,compra %d,ana\n", id, i)
	}

	res := im.ImportCSV(context.Background(), strings.NewReader(sb.String()))

	assert.True(t, res.Success)
	assert.Equal(t, 250, res.TotalLines)
	assert.Equal(t, 150, res.Succeeded)
	assert.Equal(t, 100, res.Failed)
	assert.Equal(t, 2, res.LotsSucceeded)
	assert.Equal(t, 1, res.LotsFailed)
	require.Len(t, res.Lots, 3)
	assert.True(t, res.Lots[0].Applied)
	assert.False(t, res.Lots[1].Applied)
	assert.True(t, res.Lots[2].Applied)
	assert.Equal(t, 50, res.Lots[2].Size)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Lote 2 FALLÓ (ROLLBACK aplicado): "))
	assert.Contains(t, res.Errors[0], "Producto no existe con ID: 999")
	assert.InDelta(t, 60.0, res.SuccessRate(), 0.001)

	assert.Equal(t, 150, store.Stock(1))
	assert.Equal(t, 150, store.MovementCount())
}

func TestImportCSV_FaltaColumnaCantidad(t *testing.T) {
	im, store := setup(t, 100)

	res := im.ImportCSV(context.Background(), strings.NewReader("id_producto,tipo_movimiento\n1,ENTRADA\n"))

	assert.False(t, res.Success)
	assert.Zero(t, res.TotalLines)
	assert.Zero(t, res.Succeeded)
	assert.Equal(t, []string{
		"ERROR CRÍTICO: El archivo no tiene la estructura correcta (falta columna requerida: cantidad)",
	}, res.Errors)
	assert.Equal(t, 0, store.MovementCount())
}

func TestImportCSV_FilasInvalidasSeRegistranYSeSiguen(t *testing.T) {
	im, store := setup(t, 100)

	csvData := " ID_Producto , Tipo_Movimiento ,CANTIDAD\n" +
		"1,entrada,5\n" +
		"abc,ENTRADA,1\n" +
		"2,AJUSTE,0\n" +
		"-1,SALIDA,2\n" +
		"2,salida,3\n"

	res := im.ImportCSV(context.Background(), strings.NewReader(csvData))

	assert.True(t, res.Success)
	assert.Equal(t, 5, res.TotalLines)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, []string{
		`Línea 3: Error al parsear - id_producto "abc" no es un número entero`,
		"Línea 4: Tipo de movimiento inválido: AJUSTE, Cantidad debe ser mayor a 0: 0",
		"Línea 5: ID de producto inválido: -1",
	}, res.Errors)
	assert.Equal(t, 5, store.Stock(1))
	assert.Equal(t, 7, store.Stock(2))
}

func TestImportCSV_UsuarioPorDefecto(t *testing.T) {
	im, store := setup(t, 100)

	res := im.ImportCSV(context.Background(), strings.NewReader("id_producto,tipo_movimiento,cantidad,usuario\n1,ENTRADA,2,\n"))
	require.True(t, res.Success)
	require.Equal(t, 1, res.Succeeded)

	movs, err := store.Movements().ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.DefaultUser, movs[0].User)
}

func TestImportCSV_DentroDelLoteSeVeElStockAnterior(t *testing.T) {
	im, store := setup(t, 10)

	// la salida de la línea 3 solo es posible gracias a la entrada de la línea 2
	res := im.ImportCSV(context.Background(), strings.NewReader(
		"id_producto,tipo_movimiento,cantidad\n1,ENTRADA,4\n1,SALIDA,4\n"))

	assert.Equal(t, 2, res.Succeeded)
	assert.Zero(t, res.LotsFailed)
	assert.Equal(t, 0, store.Stock(1))
}

func TestImportCSV_ArchivoVacio(t *testing.T) {
	im, _ := setup(t, 100)

	res := im.ImportCSV(context.Background(), strings.NewReader(""))

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "vacío")
}

func TestImportCSV_Latin1(t *testing.T) {
	store := memstore.New()
	store.SeedProduct(entity.Product{ID: 1, Name: "Café", Category: "Alimentación", Price: decimal.NewFromInt(3)})
	ledger := inventory.NewLedgerUseCase(store, store.Movements(), store.Products(), "", nil)
	im := importer.New(ledger, importer.Options{Charset: "ISO-8859-1"}, nil)

	res := im.ImportCSV(context.Background(), strings.NewReader("id_producto,tipo_movimiento,cantidad,motivo\n1,ENTRADA,1,recepci\xf3n\n"))
	require.Equal(t, 1, res.Succeeded)

	movs, err := store.Movements().ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recepción", movs[0].Reason)
}

func TestImportXLSX(t *testing.T) {
	im, store := setup(t, 100)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"id_producto", "tipo_movimiento", "cantidad", "motivo"},
		{1, "ENTRADA", 8, "inventario inicial"},
		{2, "SALIDA", 20, "venta"}, // stock insuficiente: su lote se revierte
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	res := im.ImportXLSX(context.Background(), bytes.NewReader(buf.Bytes()))

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.TotalLines)
	assert.Zero(t, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Stock insuficiente. Disponible: 10, Solicitado: 20")
	assert.Equal(t, 0, store.Stock(1))
}

func TestImportFile_PorExtension(t *testing.T) {
	im, store := setup(t, 100)
	path := filepath.Join(t.TempDir(), "movimientos.csv")
	require.NoError(t, os.WriteFile(path, []byte("id_producto,tipo_movimiento,cantidad\n1,ENTRADA,3\n"), 0o600))

	res := im.ImportFile(context.Background(), path)
	assert.True(t, res.Success)
	assert.Equal(t, 3, store.Stock(1))

	missing := im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "no-existe.csv"))
	assert.False(t, missing.Success)
	assert.NotEmpty(t, missing.RunID)
}
