// Package pdf genera el informe PDF de una importación masiva de movimientos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + ID de ejecución  │  fecha + estado         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: líneas / aplicadas / fallidas / tasa / duración    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Movimientos | Estado | Detalle                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ERRORES: una fila por error (truncado)                      │
//	│  FOOTER: QR con el resumen de la ejecución                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"io"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
)

// MaxErrorRows errores listados en el informe; el resto se resume en una línea.
const MaxErrorRows = 200

var _ importer.ReportRenderer = (*ImportReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOK      = &props.Color{Red: 0, Green: 120, Blue: 60}
	colorError   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ImportReportGenerator implementa importer.ReportRenderer usando Maroto v2.
type ImportReportGenerator struct{}

// NewImportReportGenerator construye el generador.
func NewImportReportGenerator() *ImportReportGenerator { return &ImportReportGenerator{} }

// RenderImportReport genera el PDF del resultado y lo escribe en w.
func (g *ImportReportGenerator) RenderImportReport(result *dto.ImportResult, w io.Writer) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Importación de movimientos de stock", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(result))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(result))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(result.Lots) > 0 {
		m.AddRows(tableHeaderRow())
		m.AddRows(lotRows(result.Lots)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}
	if len(result.Errors) > 0 {
		m.AddRows(errorRows(result.Errors)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(result))

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: escribir documento: %w", err)
	}
	return nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + ID (izq) y fecha + estado (der).
func headerRow(r *dto.ImportResult) core.Row {
	status, color := "COMPLETADA", colorOK
	switch {
	case !r.Success:
		status, color = "NO INICIADA", colorError
	case r.Failed > 0:
		status, color = "CON ERRORES", colorError
	}
	return row.New(18).Add(
		col.New(8).Add(
			text.New("IMPORTACIÓN DE MOVIMIENTOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Ejecución: "+r.RunID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(r.StartedAt.Format("02/01/2006 15:04:05"), props.Text{
				Size: 8, Align: align.Right, Top: 1, Color: colorGray,
			}),
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7, Color: color,
			}),
		),
	)
}

// summaryRow: contadores en dos columnas de etiqueta/valor.
func summaryRow(r *dto.ImportResult) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Left: 1, Top: top})
	}
	return row.New(22).Add(
		col.New(3).Add(
			label("Líneas leídas:", 2),
			label("Aplicadas:", 8),
			label("Fallidas:", 14),
		),
		col.New(3).Add(
			value(strconv.Itoa(r.TotalLines), 2),
			value(strconv.Itoa(r.Succeeded), 8),
			value(strconv.Itoa(r.Failed), 14),
		),
		col.New(3).Add(
			label("Lotes OK / fallidos:", 2),
			label("Tasa de éxito:", 8),
			label("Duración:", 14),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d / %d", r.LotsSucceeded, r.LotsFailed), 2),
			value(fmt.Sprintf("%.2f%%", r.SuccessRate()), 8),
			value(r.Duration().Round(time.Millisecond).String(), 14),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de lotes.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lote", 1, align.Center),
		h("Movs.", 2, align.Center),
		h("Estado", 2, align.Left),
		h("Detalle", 7, align.Left),
	)
}

// lotRows: una fila por lote.
func lotRows(lots []dto.LotStatus) []core.Row {
	result := make([]core.Row, 0, len(lots))
	for _, l := range lots {
		status, color := "APLICADO", colorOK
		if !l.Applied {
			status, color = "ROLLBACK", colorError
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(l.Index), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(strconv.Itoa(l.Size), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(status, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1, Color: color})),
			col.New(7).Add(text.New(l.Error, props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return result
}

// errorRows: título + un error por fila, como mucho MaxErrorRows.
func errorRows(errs []string) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New(fmt.Sprintf("ERRORES (%d)", len(errs)), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
			}),
		)),
	}
	shown := errs[:min(len(errs), MaxErrorRows)]
	for _, e := range shown {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(e, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	if rest := len(errs) - len(shown); rest > 0 {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("... y %d errores más", rest), props.Text{
				Style: fontstyle.Italic, Size: 7, Top: 0.5, Left: 2,
			}),
		)))
	}
	return rows
}

// footerRow: QR con el resumen (ID, aplicadas, fallidas) para cotejar con el log.
func footerRow(r *dto.ImportResult) core.Row {
	summary := fmt.Sprintf("%s|%d|%d|%d", r.RunID, r.TotalLines, r.Succeeded, r.Failed)
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(summary, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("Cada lote se aplica en una transacción: un lote con ROLLBACK no dejó ningún movimiento registrado.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Generado: "+r.FinishedAt.Format("02/01/2006 15:04:05"), props.Text{
				Size: 8, Top: 16, Left: 3, Color: colorGray,
			}),
		),
	)
}
