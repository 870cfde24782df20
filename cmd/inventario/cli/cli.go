// Package cli subcomandos de la herramienta de operación del inventario.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
)

// Códigos de salida.
const (
	ExitOK    = 0
	ExitFail  = 1
	ExitUsage = 2
)

// Deps casos de uso que necesitan almacén.
type Deps struct {
	Auth         *auth.AuthUseCase
	Ledger       *inventory.LedgerUseCase
	Importer     *importer.Importer
	ImportReport importer.ReportRenderer
	Loader       *catalog.Loader
	Backup       *backup.UseCase
	Migrate      func(ctx context.Context) ([]string, error)
}

// Options entorno de ejecución. Open se llama solo para comandos que tocan la base de datos.
type Options struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Open       func(ctx context.Context) (*Deps, func(), error)
	BackupDir  string
	SchemaPath string
}

type command struct {
	offline bool
	run     func(r *runner, ctx context.Context, args []string) int
}

var commands = map[string]command{
	"migrar":               {run: (*runner).migrate},
	"crear-usuario":        {run: (*runner).createUser},
	"movimiento":           {run: (*runner).movement},
	"importar-movimientos": {run: (*runner).importMovements},
	"cargar-categorias":    {run: (*runner).loadCategories},
	"cargar-productos":     {run: (*runner).loadProducts},
	"exportar-xml":         {run: (*runner).exportXML},
	"validar-xml":          {offline: true, run: (*runner).validateXML},
	"importar-xml":         {run: (*runner).importXML},
	"huella":               {offline: true, run: (*runner).fingerprint},
}

// order fija el orden de la ayuda.
var order = []string{
	"migrar", "crear-usuario", "movimiento", "importar-movimientos", "cargar-categorias",
	"cargar-productos", "exportar-xml", "validar-xml", "importar-xml", "huella",
}

var usages = map[string]string{
	"migrar":               "migrar",
	"crear-usuario":        "crear-usuario -usuario U -password P [-nombre N]",
	"movimiento":           "movimiento -producto ID -tipo ENTRADA|SALIDA -cantidad N [-motivo M] [-usuario U]",
	"importar-movimientos": "importar-movimientos [-pdf informe.pdf] [-json] archivo.csv|archivo.xlsx",
	"cargar-categorias":    "cargar-categorias archivo.csv",
	"cargar-productos":     "cargar-productos archivo.csv",
	"exportar-xml":         "exportar-xml [-o ruta.xml]",
	"validar-xml":          "validar-xml [-xsd esquema.xsd] archivo.xml",
	"importar-xml":         "importar-xml [-limpiar] [-xsd esquema.xsd] archivo.xml",
	"huella":               "huella [archivo.xml]",
}

type runner struct {
	opts Options
	deps *Deps
	// offline valida y calcula huellas de archivos sin abrir la base de datos
	offline *backup.UseCase
}

// Run ejecuta el subcomando args[0] y devuelve el código de salida.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(args) == 0 {
		printUsage(opts.Stderr)
		return ExitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(opts.Stderr, "comando desconocido: %s\n", args[0])
		printUsage(opts.Stderr)
		return ExitUsage
	}

	r := &runner{opts: opts, offline: backup.NewUseCase(nil, nil)}
	needsDB := !cmd.offline || (args[0] == "huella" && len(args) == 1)
	if needsDB {
		if opts.Open == nil {
			fmt.Fprintln(opts.Stderr, "base de datos no configurada")
			return ExitFail
		}
		deps, closeFn, err := opts.Open(ctx)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "conexión: %v\n", err)
			return ExitFail
		}
		defer closeFn()
		r.deps = deps
	}
	return cmd.run(r, ctx, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "uso: inventario <comando> [opciones]")
	for _, name := range order {
		fmt.Fprintf(w, "  %s\n", usages[name])
	}
}

// flags crea el FlagSet del comando con salida a Stderr.
func (r *runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.opts.Stderr)
	fs.Usage = func() { fmt.Fprintf(r.opts.Stderr, "uso: inventario %s\n", usages[name]) }
	return fs
}

// parse interpreta flags y exige exactamente nArgs argumentos posicionales (-1 = cualquiera).
func (r *runner) parse(fs *flag.FlagSet, args []string, nArgs int) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	if nArgs >= 0 && fs.NArg() != nArgs {
		fs.Usage()
		return false
	}
	return true
}

func (r *runner) fail(op string, err error) int {
	fmt.Fprintf(r.opts.Stderr, "%s: %v\n", op, err)
	return ExitFail
}

func (r *runner) migrate(ctx context.Context, _ []string) int {
	applied, err := r.deps.Migrate(ctx)
	if err != nil {
		return r.fail("migrar", err)
	}
	if len(applied) == 0 {
		fmt.Fprintln(r.opts.Stdout, "esquema al día")
		return ExitOK
	}
	for _, name := range applied {
		fmt.Fprintf(r.opts.Stdout, "aplicada %s\n", name)
	}
	return ExitOK
}

func (r *runner) createUser(ctx context.Context, args []string) int {
	fs := r.flags("crear-usuario")
	username := fs.String("usuario", "", "nombre de usuario")
	password := fs.String("password", "", "contraseña (mínimo 8 caracteres)")
	name := fs.String("nombre", "", "nombre visible")
	if !r.parse(fs, args, 0) {
		return ExitUsage
	}
	u, err := r.deps.Auth.CreateUser(ctx, dto.CreateUserRequest{Username: *username, Password: *password, Name: *name})
	if err != nil {
		return r.fail("crear-usuario", err)
	}
	fmt.Fprintf(r.opts.Stdout, "usuario %s creado (ID %d)\n", u.Username, u.ID)
	return ExitOK
}

func (r *runner) movement(ctx context.Context, args []string) int {
	fs := r.flags("movimiento")
	productID := fs.Int64("producto", 0, "ID del producto")
	movType := fs.String("tipo", "", "ENTRADA o SALIDA")
	quantity := fs.Int("cantidad", 0, "cantidad (> 0)")
	reason := fs.String("motivo", "", "motivo")
	user := fs.String("usuario", "", "usuario (defecto IMPORT_DEFAULT_USER)")
	if !r.parse(fs, args, 0) {
		return ExitUsage
	}
	id, err := r.deps.Ledger.RecordMovement(ctx, inventory.MovementInput{
		ProductID: *productID, Type: *movType, Quantity: *quantity, Reason: *reason, User: *user,
	})
	if err != nil {
		return r.fail("movimiento", err)
	}
	m, err := r.deps.Ledger.GetByID(ctx, id)
	if err != nil {
		return r.fail("movimiento", err)
	}
	fmt.Fprintf(r.opts.Stdout, "movimiento %d registrado: producto %d, stock %d -> %d\n",
		m.ID, m.ProductID, m.StockBefore, m.StockAfter)
	return ExitOK
}

func (r *runner) importMovements(ctx context.Context, args []string) int {
	fs := r.flags("importar-movimientos")
	pdfPath := fs.String("pdf", "", "escribe el informe PDF en esta ruta")
	asJSON := fs.Bool("json", false, "resumen en JSON")
	if !r.parse(fs, args, 1) {
		return ExitUsage
	}
	res := r.deps.Importer.ImportFile(ctx, fs.Arg(0))

	if *asJSON {
		enc := json.NewEncoder(r.opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return r.fail("importar-movimientos", err)
		}
	} else {
		writeImportSummary(r.opts.Stdout, res)
	}
	for _, e := range res.Errors {
		fmt.Fprintln(r.opts.Stderr, e)
	}
	if *pdfPath != "" {
		if err := r.writeReport(*pdfPath, res); err != nil {
			return r.fail("informe PDF", err)
		}
	}
	if !res.Success || res.Failed > 0 {
		return ExitFail
	}
	return ExitOK
}

func writeImportSummary(w io.Writer, res *dto.ImportResult) {
	fmt.Fprintf(w, "ejecución %s\n", res.RunID)
	fmt.Fprintf(w, "líneas: %d  aplicadas: %d  fallidas: %d  (%.1f%%)\n",
		res.TotalLines, res.Succeeded, res.Failed, res.SuccessRate())
	fmt.Fprintf(w, "lotes: %d correctos, %d fallidos  duración: %s\n",
		res.LotsSucceeded, res.LotsFailed, res.Duration().Round(time.Millisecond))
}

func (r *runner) writeReport(path string, res *dto.ImportResult) error {
	if r.deps.ImportReport == nil {
		return errors.New("generador de informes no configurado")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.deps.ImportReport.RenderImportReport(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *runner) loadCategories(ctx context.Context, args []string) int {
	return r.loadCatalog(ctx, "cargar-categorias", args, r.deps.Loader.LoadCategoriesCSV)
}

func (r *runner) loadProducts(ctx context.Context, args []string) int {
	return r.loadCatalog(ctx, "cargar-productos", args, r.deps.Loader.LoadProductsCSV)
}

func (r *runner) loadCatalog(ctx context.Context, name string, args []string,
	load func(context.Context, io.Reader) (*dto.LoadResult, error),
) int {
	fs := r.flags(name)
	if !r.parse(fs, args, 1) {
		return ExitUsage
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return r.fail(name, err)
	}
	defer f.Close()

	res, err := load(ctx, f)
	if err != nil {
		return r.fail(name, err)
	}
	fmt.Fprintf(r.opts.Stdout, "cargados: %d  omitidos: %d  errores: %d\n", res.Loaded, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintln(r.opts.Stderr, e)
	}
	if len(res.Errors) > 0 {
		return ExitFail
	}
	return ExitOK
}

func (r *runner) exportXML(ctx context.Context, args []string) int {
	fs := r.flags("exportar-xml")
	out := fs.String("o", "", "ruta de salida (defecto BACKUP_DIR/inventario_<fecha>_<id>.xml)")
	if !r.parse(fs, args, 0) {
		return ExitUsage
	}
	path := *out
	if path == "" {
		path = filepath.Join(r.opts.BackupDir, backup.FileName(time.Now()))
	}
	res, err := r.deps.Backup.Export(ctx, path)
	if err != nil {
		return r.fail("exportar-xml", err)
	}
	fmt.Fprintf(r.opts.Stdout, "backup escrito en %s (%d categorías, %d productos, %d movimientos, %d bytes)\n",
		res.Path, res.Categories, res.Products, res.Movements, res.Bytes)
	return ExitOK
}

func (r *runner) validateXML(ctx context.Context, args []string) int {
	fs := r.flags("validar-xml")
	xsd := fs.String("xsd", r.opts.SchemaPath, "esquema XSD (defecto el embebido)")
	if !r.parse(fs, args, 1) {
		return ExitUsage
	}
	report, err := r.offline.Validate(ctx, fs.Arg(0), *xsd)
	if err != nil {
		return r.fail("validar-xml", err)
	}
	if report.Valid {
		fmt.Fprintln(r.opts.Stdout, "documento válido")
		return ExitOK
	}
	fmt.Fprintf(r.opts.Stdout, "documento inválido: %d problemas\n", len(report.Problems))
	for _, p := range report.Problems {
		fmt.Fprintln(r.opts.Stdout, "  "+p)
	}
	return ExitFail
}

func (r *runner) importXML(ctx context.Context, args []string) int {
	fs := r.flags("importar-xml")
	clearFirst := fs.Bool("limpiar", false, "vacía movimientos, productos y categorías antes de restaurar")
	xsd := fs.String("xsd", r.opts.SchemaPath, "esquema XSD (defecto el embebido)")
	if !r.parse(fs, args, 1) {
		return ExitUsage
	}
	res, err := r.deps.Backup.Restore(ctx, fs.Arg(0), *xsd, *clearFirst)
	if err != nil {
		return r.fail("importar-xml", err)
	}
	if res.Cleared {
		fmt.Fprintln(r.opts.Stdout, "restauración confirmada (almacén vaciado)")
	} else {
		fmt.Fprintln(r.opts.Stdout, "restauración confirmada")
	}
	for _, row := range []struct {
		label string
		count dto.UpsertCount
	}{
		{"categorías", res.Categories},
		{"productos", res.Products},
		{"movimientos", res.Movements},
	} {
		fmt.Fprintf(r.opts.Stdout, "  %-12s insertados %d, actualizados %d\n", row.label, row.count.Inserted, row.count.Updated)
	}
	return ExitOK
}

func (r *runner) fingerprint(ctx context.Context, args []string) int {
	fs := r.flags("huella")
	if !r.parse(fs, args, -1) {
		return ExitUsage
	}
	var (
		fp  string
		err error
	)
	switch fs.NArg() {
	case 0:
		fp, err = r.deps.Backup.CurrentFingerprint(ctx)
	case 1:
		fp, err = r.offline.Fingerprint(ctx, fs.Arg(0))
	default:
		fs.Usage()
		return ExitUsage
	}
	if err != nil {
		return r.fail("huella", err)
	}
	fmt.Fprintln(r.opts.Stdout, strings.ToLower(fp))
	return ExitOK
}
