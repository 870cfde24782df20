// Package catalog carga categorías y productos desde CSV y expone las consultas de catálogo.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
	"github.com/jhoicas/inventario-stock/pkg/logger"
	"github.com/jhoicas/inventario-stock/pkg/textenc"
)

// InitialStockReason motivo del movimiento que registra el stock de un producto cargado.
const InitialStockReason = "Carga inicial desde CSV"

var (
	categoryColumns = []string{"nombre", "descripcion"}
	productColumns  = []string{"id_producto", "nombre", "categoria", "precio", "stock"}
)

// Loader carga masiva de catálogo (CSV separado por punto y coma).
type Loader struct {
	txRunner   TxRunner
	catRepo    repository.CategoryRepository
	ledger     StockRecorder
	normalizer Normalizer
	charset    string
	log        *logger.Logger
}

// NewLoader construye el cargador. normalizer nil usa las sustituciones históricas.
func NewLoader(
	txRunner TxRunner,
	catRepo repository.CategoryRepository,
	ledger StockRecorder,
	normalizer Normalizer,
	charset string,
	log *logger.Logger,
) *Loader {
	if normalizer == nil {
		normalizer = NewReplacementNormalizer(LegacyReplacements())
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		txRunner:   txRunner,
		catRepo:    catRepo,
		ledger:     ledger,
		normalizer: normalizer,
		charset:    charset,
		log:        log.Named("catalog"),
	}
}

// table CSV con cabecera indexada por nombre de columna.
type table struct {
	r   *csv.Reader
	idx map[string]int
}

func (l *Loader) openTable(r io.Reader, required []string) (*table, error) {
	decoded, err := textenc.NewReader(r, l.charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.StructuralError{Reason: "Estructura del archivo CSV inválida (archivo vacío)"}
	}
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	t := &table{r: cr, idx: make(map[string]int, len(head))}
	for i, h := range head {
		t.idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range required {
		if _, ok := t.idx[c]; !ok {
			return nil, &domain.StructuralError{
				Reason: fmt.Sprintf("Estructura del archivo CSV inválida (falta columna requerida: %s)", c),
			}
		}
	}
	return t, nil
}

// next devuelve la siguiente fila y su línea; io.EOF al terminar.
func (t *table) next() ([]string, int, error) {
	rec, err := t.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.StartLine, err
		}
		return nil, 0, err
	}
	line, _ := t.r.FieldPos(0)
	return rec, line, nil
}

func (t *table) get(rec []string, col string) string {
	i, ok := t.idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// LoadCategoriesCSV crea las categorías del CSV; las que ya existen por nombre se saltan.
func (l *Loader) LoadCategoriesCSV(ctx context.Context, r io.Reader) (*dto.LoadResult, error) {
	t, err := l.openTable(r, categoryColumns)
	if err != nil {
		return nil, err
	}
	res := &dto.LoadResult{Errors: []string{}}
	for {
		rec, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if line == 0 {
				return nil, fmt.Errorf("leer categorías: %w", err)
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al procesar - %v", line, err))
			continue
		}

		c := &entity.Category{
			Name:        l.normalizer.Normalize(t.get(rec, "nombre")),
			Description: t.get(rec, "descripcion"),
		}
		if !c.IsValid() {
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Categoría inválida - nombre vacío", line))
			continue
		}
		exists, err := l.catRepo.ExistsByName(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			res.Skipped++
			l.log.Debug().Str("categoria", c.Name).Msg("categoría ya existe, se salta")
			continue
		}
		if err := l.catRepo.Create(ctx, c); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al procesar - %v", line, err))
			continue
		}
		res.Loaded++
	}
	l.log.Info().Int("creadas", res.Loaded).Int("saltadas", res.Skipped).Int("errores", len(res.Errors)).
		Msg("carga de categorías terminada")
	return res, nil
}

// LoadProductsCSV crea los productos del CSV. Las categorías que faltan se crean con una
// descripción automática. Cada producto entra con stock 0 y su stock inicial se registra como
// ENTRADA del ledger en la misma transacción, así stock e historial coinciden.
func (l *Loader) LoadProductsCSV(ctx context.Context, r io.Reader) (*dto.LoadResult, error) {
	t, err := l.openTable(r, productColumns)
	if err != nil {
		return nil, err
	}
	res := &dto.LoadResult{Errors: []string{}}
	explicitIDs := false
	for {
		rec, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if line == 0 {
				return nil, fmt.Errorf("leer productos: %w", err)
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al procesar - %v", line, err))
			continue
		}

		p, stock, err := l.parseProduct(t, rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al procesar - %v", line, err))
			continue
		}
		if !p.IsValid() || stock < 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Producto inválido - %s", line, describe(p, stock)))
			continue
		}

		if err := l.createProduct(ctx, p, stock); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Producto duplicado con ID: %d", line, p.ID))
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al procesar - %v", line, err))
			continue
		}
		if t.get(rec, "id_producto") != "" {
			explicitIDs = true
		}
		res.Loaded++
	}

	if explicitIDs {
		err := l.txRunner.RunCatalog(ctx, func(_ repository.CategoryRepository, productRepo repository.ProductRepository, _ repository.StockMovementRepository) error {
			return productRepo.SyncSequence(ctx)
		})
		if err != nil {
			return nil, err
		}
	}
	l.log.Info().Int("cargados", res.Loaded).Int("saltados", res.Skipped).Int("errores", len(res.Errors)).
		Msg("carga de productos terminada")
	return res, nil
}

func (l *Loader) parseProduct(t *table, rec []string) (*entity.Product, int, error) {
	p := &entity.Product{
		Name:     t.get(rec, "nombre"),
		Category: l.normalizer.Normalize(t.get(rec, "categoria")),
	}
	if raw := t.get(rec, "id_producto"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("id_producto %q no es un número entero", raw)
		}
		p.ID = id
	}
	if raw := t.get(rec, "precio"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("precio %q no es un decimal", raw)
		}
		p.Price = price
	}
	stock := 0
	if raw := t.get(rec, "stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("stock %q no es un número entero", raw)
		}
		stock = n
	}
	return p, stock, nil
}

// createProduct una tx por producto: categoría (si falta), producto con stock 0 y ENTRADA inicial.
func (l *Loader) createProduct(ctx context.Context, p *entity.Product, stock int) error {
	return l.txRunner.RunCatalog(ctx, func(
		catRepo repository.CategoryRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		exists, err := catRepo.ExistsByName(ctx, p.Category)
		if err != nil {
			return err
		}
		if !exists {
			c := &entity.Category{Name: p.Category, Description: entity.CategoryAutoDescription}
			if err := catRepo.Create(ctx, c); err != nil && !errors.Is(err, domain.ErrDuplicate) {
				return fmt.Errorf("crear categoría %s: %w", p.Category, err)
			}
			l.log.Info().Str("categoria", p.Category).Msg("categoría creada automáticamente")
		}

		p.Stock = 0
		if err := productRepo.Create(ctx, p); err != nil {
			return err
		}
		if stock == 0 {
			return nil
		}
		_, err = l.ledger.RecordMovementInTx(ctx, movRepo, productRepo, inventory.MovementInput{
			ProductID: p.ID,
			Type:      entity.MovementEntry,
			Quantity:  stock,
			Reason:    InitialStockReason,
		})
		return err
	})
}

func describe(p *entity.Product, stock int) string {
	return fmt.Sprintf("Producto{id=%d, nombre='%s', categoria='%s', precio=%s, stock=%d}",
		p.ID, p.Name, p.Category, p.Price.String(), stock)
}
