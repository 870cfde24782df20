package importer

import (
	"context"
	"io"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
)

// MovementRecorder aplica un lote de movimientos de forma atómica (todo o nada).
// Lo implementa inventory.LedgerUseCase.
type MovementRecorder interface {
	RecordMovementsBatch(ctx context.Context, inputs []inventory.MovementInput) (int, error)
}

// RecordReader fuente tabular: la primera llamada devuelve la cabecera y luego una fila por llamada.
// Devuelve io.EOF al terminar. Lo cumplen *csv.Reader y el lector de hojas XLSX.
type RecordReader interface {
	Read() ([]string, error)
}

// ReportRenderer genera el informe de una importación (PDF).
type ReportRenderer interface {
	RenderImportReport(result *dto.ImportResult, w io.Writer) error
}
