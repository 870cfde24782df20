package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-stock/pkg/textenc"
)

// newCSVReader lector CSV separado por comas; las filas pueden tener distinto número de campos.
func newCSVReader(r io.Reader, charset string) (*csv.Reader, error) {
	decoded, err := textenc.NewReader(r, charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	cr.Comma = ','
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr, nil
}

// sheetReader recorre las filas de la primera hoja de un libro XLSX.
type sheetReader struct {
	rows [][]string
	next int
}

// newXLSXReader abre el libro y carga la primera hoja.
func newXLSXReader(r io.Reader) (*sheetReader, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("el libro no tiene hojas")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheets[0], err)
	}
	return &sheetReader{rows: rows}, nil
}

// Read devuelve la siguiente fila; las filas totalmente vacías se saltan.
func (s *sheetReader) Read() ([]string, error) {
	for s.next < len(s.rows) {
		row := s.rows[s.next]
		s.next++
		if !blank(row) {
			return row, nil
		}
	}
	return nil, io.EOF
}

// FieldPos número de fila (desde 1) de la última fila devuelta.
func (s *sheetReader) FieldPos(int) (line, column int) {
	return s.next, 1
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
