package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/cmd/inventario/cli"
	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-stock/internal/testutil/memstore"
)

type harness struct {
	store  *memstore.Store
	opts   cli.Options
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	opened int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	store.SeedProduct(entity.Product{ID: 1, Name: "Tornillo", Category: "General", Price: decimal.NewFromInt(1), Stock: 10})

	h := &harness{store: store, stdout: new(bytes.Buffer), stderr: new(bytes.Buffer)}
	ledger := inventory.NewLedgerUseCase(store, store.Movements(), store.Products(), "", nil)
	deps := &cli.Deps{
		Auth:         auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: "s", ExpMinutes: 5}),
		Ledger:       ledger,
		Importer:     importer.New(ledger, importer.Options{LotSize: 2}, nil),
		ImportReport: pdf.NewImportReportGenerator(),
		Loader:       catalog.NewLoader(store, store.Categories(), ledger, nil, "", nil),
		Backup:       backup.NewUseCase(store, nil),
		Migrate: func(context.Context) ([]string, error) {
			return []string{"001_init.sql"}, nil
		},
	}
	h.opts = cli.Options{
		Stdout:    h.stdout,
		Stderr:    h.stderr,
		BackupDir: t.TempDir(),
		Open: func(context.Context) (*cli.Deps, func(), error) {
			h.opened++
			return deps, func() {}, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	return cli.Run(context.Background(), args, h.opts)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Uso(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, cli.ExitUsage, h.run())
	assert.Contains(t, h.stderr.String(), "uso: inventario <comando>")

	assert.Equal(t, cli.ExitUsage, h.run("borrar-todo"))
	assert.Contains(t, h.stderr.String(), "comando desconocido: borrar-todo")

	assert.Equal(t, cli.ExitUsage, h.run("movimiento", "-cantidad", "x"))
	assert.Equal(t, cli.ExitUsage, h.run("importar-movimientos"))
	assert.Contains(t, h.stderr.String(), "uso: inventario importar-movimientos")
}

func TestRun_MigrarYCrearUsuario(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, cli.ExitOK, h.run("migrar"))
	assert.Equal(t, "aplicada 001_init.sql\n", h.stdout.String())

	require.Equal(t, cli.ExitOK, h.run("crear-usuario", "-usuario", "ana", "-password", "secreta123"))
	assert.Contains(t, h.stdout.String(), "usuario ana creado")

	assert.Equal(t, cli.ExitFail, h.run("crear-usuario", "-usuario", "ana", "-password", "corta"))
	assert.NotEmpty(t, h.stderr.String())
}

func TestRun_Movimiento(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, cli.ExitOK, h.run("movimiento", "-producto", "1", "-tipo", "salida", "-cantidad", "4", "-usuario", "ana"))
	assert.Equal(t, "movimiento 1 registrado: producto 1, stock 10 -> 6\n", h.stdout.String())

	assert.Equal(t, cli.ExitFail, h.run("movimiento", "-producto", "1", "-tipo", "SALIDA", "-cantidad", "15"))
	assert.Equal(t, "movimiento: Stock insuficiente. Disponible: 6, Solicitado: 15\n", h.stderr.String())
	assert.Equal(t, 6, h.store.Stock(1))
}

func TestRun_ImportarMovimientosConInforme(t *testing.T) {
	h := newHarness(t)
	src := writeFile(t, "movs.csv", "id_producto,tipo_movimiento,cantidad\n1,ENTRADA,5\n1,SALIDA,1\n99,ENTRADA,1\n")
	report := filepath.Join(t.TempDir(), "informe.pdf")

	code := h.run("importar-movimientos", "-pdf", report, src)
	assert.Equal(t, cli.ExitFail, code, "hay un lote fallido")
	assert.Contains(t, h.stdout.String(), "líneas: 3  aplicadas: 2  fallidas: 1")
	assert.NotEmpty(t, h.stderr.String())
	assert.Equal(t, 14, h.store.Stock(1))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRun_CargasDeCatalogo(t *testing.T) {
	h := newHarness(t)
	cats := writeFile(t, "cats.csv", "nombre;descripcion\nHogar;Casa\n")
	prods := writeFile(t, "prods.csv", "id_producto;nombre;categoria;precio;stock\n5;Silla;Hogar;20;3\n")

	require.Equal(t, cli.ExitOK, h.run("cargar-categorias", cats))
	assert.Equal(t, "cargados: 1  omitidos: 0  errores: 0\n", h.stdout.String())

	require.Equal(t, cli.ExitOK, h.run("cargar-productos", prods))
	assert.Equal(t, 3, h.store.Stock(5))

	assert.Equal(t, cli.ExitFail, h.run("cargar-productos", filepath.Join(t.TempDir(), "no-existe.csv")))
}

func TestRun_BackupIdaYVuelta(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(t.TempDir(), "backup.xml")

	require.Equal(t, cli.ExitOK, h.run("exportar-xml", "-o", out))
	assert.Contains(t, h.stdout.String(), "backup escrito en "+out)

	require.Equal(t, cli.ExitOK, h.run("huella"))
	current := strings.TrimSpace(h.stdout.String())

	opened := h.opened
	require.Equal(t, cli.ExitOK, h.run("huella", out))
	assert.Equal(t, current, strings.TrimSpace(h.stdout.String()))
	require.Equal(t, cli.ExitOK, h.run("validar-xml", out))
	assert.Equal(t, "documento válido\n", h.stdout.String())
	assert.Equal(t, opened, h.opened, "validar y huella de archivo no abren la base de datos")

	require.Equal(t, cli.ExitOK, h.run("movimiento", "-producto", "1", "-tipo", "SALIDA", "-cantidad", "10"))
	require.Equal(t, cli.ExitOK, h.run("importar-xml", "-limpiar", out))
	assert.Contains(t, h.stdout.String(), "restauración confirmada (almacén vaciado)")
	assert.Equal(t, 10, h.store.Stock(1))
	assert.Zero(t, h.store.MovementCount())
}

func TestRun_ValidarXMLInvalido(t *testing.T) {
	h := newHarness(t)
	doc := writeFile(t, "malo.xml", `<?xml version="1.0"?><inventario version="2.0"/>`)

	assert.Equal(t, cli.ExitFail, h.run("validar-xml", doc))
	assert.Contains(t, h.stdout.String(), "documento inválido")
	assert.Zero(t, h.opened)

	assert.Equal(t, cli.ExitFail, h.run("importar-xml", doc))
	assert.Contains(t, h.stderr.String(), "importar-xml:")
}

func TestRun_FalloDeConexion(t *testing.T) {
	h := newHarness(t)
	h.opts.Open = func(context.Context) (*cli.Deps, func(), error) {
		return nil, nil, errors.New("connection refused")
	}

	assert.Equal(t, cli.ExitFail, h.run("migrar"))
	assert.Equal(t, "conexión: connection refused\n", h.stderr.String())
}
