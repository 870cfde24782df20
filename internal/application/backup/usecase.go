// Package backup exporta el inventario completo a XML y lo restaura con upsert que conserva IDs.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/xmlbackup"
	"github.com/jhoicas/inventario-stock/pkg/logger"
)

// UseCase casos de uso de backup y restauración.
type UseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{txRunner: txRunner, log: log.Named("backup"), now: time.Now}
}

// Snapshot lee categorías (por ID), productos (por ID) y movimientos (más recientes primero)
// dentro de una misma transacción de lectura.
func (uc *UseCase) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	snap := &entity.Snapshot{ExportedAt: uc.now(), Version: xmlbackup.Version}
	err := uc.txRunner.RunSnapshot(ctx, func(repo repository.BackupRepository) error {
		var err error
		if snap.Categories, err = repo.ListCategories(ctx); err != nil {
			return err
		}
		if snap.Products, err = repo.ListProducts(ctx); err != nil {
			return err
		}
		snap.Movements, err = repo.ListMovements(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("leer inventario: %w", err)
	}
	return snap, nil
}

// render serializa el snapshot y comprueba que el resultado cumple el XSD embebido.
func (uc *UseCase) render(ctx context.Context) (*entity.Snapshot, []byte, error) {
	snap, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := xmlbackup.Encode(&buf, snap); err != nil {
		return nil, nil, fmt.Errorf("generar XML: %w", err)
	}
	if problems := xmlbackup.DefaultValidator().ValidateBytes(buf.Bytes()); len(problems) > 0 {
		return nil, nil, schemaError(problems)
	}
	return snap, buf.Bytes(), nil
}

// ExportTo escribe el backup en w. Result.Path queda vacío.
func (uc *UseCase) ExportTo(ctx context.Context, w io.Writer) (*dto.ExportResult, error) {
	snap, data, err := uc.render(ctx)
	if err != nil {
		uc.log.Error().Err(err).Msg("exportación fallida")
		return nil, err
	}
	n, err := w.Write(data)
	if err != nil {
		return nil, fmt.Errorf("escribir backup: %w", err)
	}
	return exportResult("", snap, int64(n)), nil
}

// Export escribe el backup en path. Se escribe a un temporal en el mismo directorio y se
// renombra al final: ante cualquier fallo no queda archivo en path.
func (uc *UseCase) Export(ctx context.Context, path string) (*dto.ExportResult, error) {
	res, err := uc.export(ctx, path)
	if err != nil {
		uc.log.Error().Err(err).Str("archivo", path).Msg("exportación fallida")
		return nil, err
	}
	uc.log.Info().Str("archivo", path).Int("categorias", res.Categories).Int("productos", res.Products).
		Int("movimientos", res.Movements).Int64("bytes", res.Bytes).Msg("backup exportado")
	return res, nil
}

func (uc *UseCase) export(ctx context.Context, path string) (*dto.ExportResult, error) {
	snap, data, err := uc.render(ctx)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".inventario-*.xml.tmp")
	if err != nil {
		return nil, fmt.Errorf("crear temporal: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return nil, fmt.Errorf("escribir backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("escribir backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("cerrar backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("mover backup: %w", err)
	}
	committed = true
	return exportResult(path, snap, int64(len(data))), nil
}

func exportResult(path string, snap *entity.Snapshot, size int64) *dto.ExportResult {
	return &dto.ExportResult{
		Path:       path,
		Categories: len(snap.Categories),
		Products:   len(snap.Products),
		Movements:  len(snap.Movements),
		Bytes:      size,
		ExportedAt: snap.ExportedAt.UTC(),
	}
}

// Validate comprueba docPath contra el XSD de schemaPath (vacío = embebido).
// Solo devuelve error si algún archivo no se puede leer; un documento inválido es Valid=false.
func (uc *UseCase) Validate(ctx context.Context, docPath, schemaPath string) (*dto.ValidationReport, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("leer documento: %w", err)
	}
	return uc.ValidateBytes(ctx, data, schemaPath)
}

// ValidateBytes igual que Validate sobre el contenido ya leído.
func (uc *UseCase) ValidateBytes(_ context.Context, data []byte, schemaPath string) (*dto.ValidationReport, error) {
	v, err := xmlbackup.LoadValidator(schemaPath)
	if err != nil {
		return nil, err
	}
	problems := v.ValidateBytes(data)
	if len(problems) > 0 {
		uc.log.Warn().Int("problemas", len(problems)).Str("primero", problems[0]).Msg("documento no válido")
	}
	return &dto.ValidationReport{Valid: len(problems) == 0, Problems: problems}, nil
}

// Restore restaura docPath. Ver RestoreBytes.
func (uc *UseCase) Restore(ctx context.Context, docPath, schemaPath string, clearFirst bool) (*dto.RestoreResult, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("leer documento: %w", err)
	}
	return uc.RestoreBytes(ctx, data, schemaPath, clearFirst)
}

// RestoreBytes valida el documento y, solo si es válido, lo aplica en una única transacción:
// borrado opcional y upsert de categorías, productos y movimientos en ese orden.
// Cada upsert intenta actualizar por ID (las categorías también por nombre) y si no afecta
// filas inserta con el ID original. Cualquier error revierte todo.
func (uc *UseCase) RestoreBytes(ctx context.Context, data []byte, schemaPath string, clearFirst bool) (*dto.RestoreResult, error) {
	report, err := uc.ValidateBytes(ctx, data, schemaPath)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, schemaError(report.Problems)
	}
	snap, err := xmlbackup.DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	var res *dto.RestoreResult
	err = uc.txRunner.RunBackup(ctx, func(repo repository.BackupRepository) error {
		var err error
		res, err = restore(ctx, repo, snap, clearFirst)
		return err
	})
	if err != nil {
		uc.log.Error().Err(err).Bool("limpiar", clearFirst).Msg("restauración revertida")
		return nil, err
	}
	uc.log.Info().Bool("limpiar", clearFirst).
		Int("categorias_nuevas", res.Categories.Inserted).Int("categorias_actualizadas", res.Categories.Updated).
		Int("productos_nuevos", res.Products.Inserted).Int("productos_actualizados", res.Products.Updated).
		Int("movimientos_nuevos", res.Movements.Inserted).Int("movimientos_actualizados", res.Movements.Updated).
		Msg("backup restaurado")
	return res, nil
}

func restore(ctx context.Context, repo repository.BackupRepository, snap *entity.Snapshot, clearFirst bool) (*dto.RestoreResult, error) {
	res := &dto.RestoreResult{Cleared: clearFirst}
	if clearFirst {
		if err := repo.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("limpiar tablas: %w", err)
		}
	}

	for _, c := range snap.Categories {
		n, err := repo.UpdateCategory(ctx, c)
		if err == nil && n == 0 {
			n, err = repo.UpdateCategoryByName(ctx, c)
		}
		if err := upserted(&res.Categories, n, err, func() error { return repo.InsertCategory(ctx, c) }); err != nil {
			return nil, fmt.Errorf("categoría %d: %w", c.ID, err)
		}
	}
	for _, p := range snap.Products {
		n, err := repo.UpdateProduct(ctx, p)
		if err := upserted(&res.Products, n, err, func() error { return repo.InsertProduct(ctx, p) }); err != nil {
			return nil, fmt.Errorf("producto %d: %w", p.ID, err)
		}
	}
	for _, m := range snap.Movements {
		n, err := repo.UpdateMovement(ctx, m)
		if err := upserted(&res.Movements, n, err, func() error { return repo.InsertMovement(ctx, m) }); err != nil {
			return nil, fmt.Errorf("movimiento %d: %w", m.ID, err)
		}
	}

	if err := repo.SyncSequences(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// upserted cierra el camino de dos pasos: si la actualización no tocó filas, inserta.
func upserted(count *dto.UpsertCount, affected int64, updateErr error, insert func() error) error {
	if updateErr != nil {
		return updateErr
	}
	if affected > 0 {
		count.Updated++
		return nil
	}
	if err := insert(); err != nil {
		return err
	}
	count.Inserted++
	return nil
}

// Fingerprint huella del backup en path (ver xmlbackup.Fingerprint).
func (uc *UseCase) Fingerprint(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("leer documento: %w", err)
	}
	return xmlbackup.Fingerprint(data)
}

// CurrentFingerprint huella del inventario actual, comparable con la de un archivo exportado.
func (uc *UseCase) CurrentFingerprint(ctx context.Context) (string, error) {
	_, data, err := uc.render(ctx)
	if err != nil {
		return "", err
	}
	return xmlbackup.Fingerprint(data)
}

// FileName nombre de archivo para un backup tomado en at: inventario_AAAAMMDD_HHMMSS_<8 hex>.xml.
func FileName(at time.Time) string {
	return fmt.Sprintf("inventario_%s_%s.xml", at.Format("20060102_150405"), uuid.NewString()[:8])
}

func schemaError(problems []string) error {
	shown := problems[:min(3, len(problems))]
	reason := "el XML no cumple el esquema: " + strings.Join(shown, "; ")
	if extra := len(problems) - len(shown); extra > 0 {
		reason += fmt.Sprintf(" (y %d problemas más)", extra)
	}
	return &domain.StructuralError{Reason: reason}
}
