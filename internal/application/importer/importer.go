// Package importer carga movimientos de stock desde fuentes tabulares (CSV, XLSX) en lotes
// de tamaño fijo; cada lote se aplica en una transacción y un lote fallido no afecta a los demás.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/pkg/logger"
)

// DefaultLotSize movimientos por transacción.
const DefaultLotSize = 100

// Estados de una ejecución (solo para trazas).
const (
	stateValidatingStructure = "VALIDANDO_ESTRUCTURA"
	stateReadingRecords      = "LEYENDO_REGISTROS"
	stateProcessingLots      = "PROCESANDO_LOTES"
	stateDone                = "TERMINADO"
)

// Options configuración del importador.
type Options struct {
	LotSize int
	Charset string // codificación de los CSV; vacío = UTF-8
}

// Importer importador de movimientos.
type Importer struct {
	recorder MovementRecorder
	opts     Options
	log      *logger.Logger
}

// New construye el importador. LotSize <= 0 usa DefaultLotSize.
func New(recorder MovementRecorder, opts Options, log *logger.Logger) *Importer {
	if opts.LotSize <= 0 {
		opts.LotSize = DefaultLotSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{recorder: recorder, opts: opts, log: log.Named("importer")}
}

// ImportFile importa un archivo .csv o .xlsx según su extensión.
func (im *Importer) ImportFile(ctx context.Context, path string) *dto.ImportResult {
	f, err := os.Open(path)
	if err != nil {
		return im.unreadable(newResult(), fmt.Errorf("abrir %s: %w", path, err))
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return im.ImportXLSX(ctx, f)
	}
	return im.ImportCSV(ctx, f)
}

// ImportCSV importa un CSV separado por comas con cabecera.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) *dto.ImportResult {
	cr, err := newCSVReader(r, im.opts.Charset)
	if err != nil {
		return im.unreadable(newResult(), err)
	}
	return im.Import(ctx, cr)
}

// ImportXLSX importa la primera hoja de un libro XLSX; la primera fila es la cabecera.
func (im *Importer) ImportXLSX(ctx context.Context, r io.Reader) *dto.ImportResult {
	sr, err := newXLSXReader(r)
	if err != nil {
		return im.unreadable(newResult(), err)
	}
	return im.Import(ctx, sr)
}

// Import ejecuta la importación sobre cualquier RecordReader. Nunca devuelve nil.
func (im *Importer) Import(ctx context.Context, rr RecordReader) *dto.ImportResult {
	res := newResult()
	log := im.log.With().Str("run_id", res.RunID).Logger()

	log.Info().Str("estado", stateValidatingStructure).Msg("importación iniciada")
	first, err := rr.Read()
	if errors.Is(err, io.EOF) {
		return im.unreadable(res, errors.New("el archivo está vacío"))
	}
	if err != nil {
		return im.unreadable(res, err)
	}
	h := parseHeader(first)
	if col := h.missing(); col != "" {
		res.Errors = append(res.Errors,
			fmt.Sprintf("ERROR CRÍTICO: El archivo no tiene la estructura correcta (falta columna requerida: %s)", col))
		res.FinishedAt = time.Now()
		log.Error().Str("columna", col).Msg("estructura inválida")
		return res
	}

	log.Info().Str("estado", stateReadingRecords).Msg("leyendo registros")
	candidates, err := im.readRecords(rr, h, res)
	if err != nil {
		return im.unreadable(res, err)
	}

	log.Info().Str("estado", stateProcessingLots).Int("validos", len(candidates)).Int("lote", im.opts.LotSize).
		Msg("procesando lotes")
	im.processLots(ctx, candidates, res, log)

	res.Success = true
	res.FinishedAt = time.Now()
	log.Info().Str("estado", stateDone).
		Int("total", res.TotalLines).Int("exitosos", res.Succeeded).Int("fallidos", res.Failed).
		Int("lotes_ok", res.LotsSucceeded).Int("lotes_fallidos", res.LotsFailed).
		Dur("duracion", res.Duration()).Msg("importación terminada")
	return res
}

// readRecords convierte las filas en candidatos; las filas malas quedan como errores "Línea N".
// Solo un fallo de lectura (no de formato) aborta.
func (im *Importer) readRecords(rr RecordReader, h header, res *dto.ImportResult) ([]candidate, error) {
	pos, hasPos := rr.(interface{ FieldPos(int) (int, int) })
	var candidates []candidate
	line := 1
	for {
		record, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return candidates, nil
		}
		line++
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			if csvErr.StartLine > 0 {
				line = csvErr.StartLine
			}
			res.TotalLines++
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al parsear - %v", line, csvErr.Err))
			continue
		}
		if err != nil {
			return nil, err
		}
		if hasPos {
			line, _ = pos.FieldPos(0)
		}
		res.TotalLines++

		in, problems, err := parseRecord(h, record)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: Error al parsear - %v", line, err))
			continue
		}
		if len(problems) > 0 {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Línea %d: %s", line, strings.Join(problems, ", ")))
			continue
		}
		candidates = append(candidates, candidate{line: line, input: in})
	}
}

// processLots aplica los candidatos en lotes, en orden y de uno en uno.
func (im *Importer) processLots(ctx context.Context, candidates []candidate, res *dto.ImportResult, log zerolog.Logger) {
	for start, index := 0, 1; start < len(candidates); start, index = start+im.opts.LotSize, index+1 {
		end := min(start+im.opts.LotSize, len(candidates))
		lot := candidates[start:end]
		inputs := make([]inventory.MovementInput, len(lot))
		for i, c := range lot {
			inputs[i] = c.input
		}

		status := dto.LotStatus{Index: index, Size: len(lot)}
		applied, err := im.recorder.RecordMovementsBatch(ctx, inputs)
		if err != nil {
			msg := fmt.Sprintf("Lote %d FALLÓ (ROLLBACK aplicado): %v", index, err)
			status.Error = msg
			res.Errors = append(res.Errors, msg)
			res.Failed += len(lot)
			res.LotsFailed++
			log.Warn().Int("lote", index).Int("primera_linea", lot[0].line).Err(err).Msg("lote revertido")
		} else {
			status.Applied = true
			res.Succeeded += applied
			res.LotsSucceeded++
			log.Debug().Int("lote", index).Int("movimientos", applied).Msg("lote aplicado")
		}
		res.Lots = append(res.Lots, status)
	}
}

func (im *Importer) unreadable(res *dto.ImportResult, err error) *dto.ImportResult {
	res.Success = false
	res.Errors = append(res.Errors, "Error al leer el archivo: "+err.Error())
	res.FinishedAt = time.Now()
	im.log.Error().Str("run_id", res.RunID).Err(err).Msg("no se pudo leer el origen")
	return res
}

func newResult() *dto.ImportResult {
	return &dto.ImportResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Lots:      []dto.LotStatus{},
		Errors:    []string{},
	}
}
