package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// Columnas del formato de importación de movimientos.
const (
	colProductID = "id_producto"
	colType      = "tipo_movimiento"
	colQuantity  = "cantidad"
	colReason    = "motivo"
	colUser      = "usuario"
)

var requiredColumns = []string{colProductID, colType, colQuantity}

// header posiciones de cada columna (nombres en minúsculas y recortados).
type header map[string]int

func parseHeader(fields []string) header {
	h := make(header, len(fields))
	for i, f := range fields {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(f, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// missing primera columna obligatoria ausente, o "".
func (h header) missing() string {
	for _, c := range requiredColumns {
		if _, ok := h[c]; !ok {
			return c
		}
	}
	return ""
}

func (h header) get(record []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// candidate movimiento válido junto con la línea de la que salió.
type candidate struct {
	line  int
	input inventory.MovementInput
}

// parseError valor que no se pudo convertir (no numérico).
type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }

// parseRecord convierte una fila en movimiento. Devuelve *parseError si un número no se puede
// leer, o la lista de problemas de validación.
func parseRecord(h header, record []string) (inventory.MovementInput, []string, error) {
	rawID := h.get(record, colProductID)
	rawType := h.get(record, colType)
	rawQty := h.get(record, colQuantity)

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return inventory.MovementInput{}, nil, &parseError{msg: fmt.Sprintf("id_producto %q no es un número entero", rawID)}
	}
	qty, err := strconv.Atoi(rawQty)
	if err != nil {
		return inventory.MovementInput{}, nil, &parseError{msg: fmt.Sprintf("cantidad %q no es un número entero", rawQty)}
	}

	in := inventory.MovementInput{
		ProductID: id,
		Type:      strings.ToUpper(rawType),
		Quantity:  qty,
		Reason:    h.get(record, colReason),
		User:      h.get(record, colUser),
	}

	var problems []string
	if id <= 0 {
		problems = append(problems, "ID de producto inválido: "+rawID)
	}
	if !entity.IsValidMovementType(in.Type) {
		problems = append(problems, "Tipo de movimiento inválido: "+rawType)
	}
	if qty <= 0 {
		problems = append(problems, "Cantidad debe ser mayor a 0: "+rawQty)
	}
	if len(problems) == 0 {
		if err := in.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return in, problems, nil
}
