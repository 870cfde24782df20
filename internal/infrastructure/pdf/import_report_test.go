package pdf_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/pdf"
)

func TestRenderImportReport_GeneraPDF(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	errs := make([]string, 0, pdf.MaxErrorRows+5)
	for i := range pdf.MaxErrorRows + 5 {
		errs = append(errs, fmt.Sprintf("Línea %d: Producto no existe con ID: 999", i+2))
	}
	result := &dto.ImportResult{
		RunID:         "run-1",
		Success:       true,
		TotalLines:    250,
		Succeeded:     150,
		Failed:        100,
		LotsSucceeded: 2,
		LotsFailed:    1,
		Lots: []dto.LotStatus{
			{Index: 1, Size: 100, Applied: true},
			{Index: 2, Size: 100, Error: "Producto no existe con ID: 999"},
			{Index: 3, Size: 50, Applied: true},
		},
		Errors:     errs,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.NewImportReportGenerator().RenderImportReport(result, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderImportReport_ImportacionNoIniciada(t *testing.T) {
	result := &dto.ImportResult{
		RunID:  "run-2",
		Errors: []string{"ERROR CRÍTICO: El archivo no tiene la estructura correcta (falta columna requerida: cantidad)"},
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.NewImportReportGenerator().RenderImportReport(result, &buf))
	assert.NotZero(t, buf.Len())
}
