package entity

import "time"

// Tipos de movimiento tal como se persisten.
const (
	MovementEntry = "ENTRADA"
	MovementExit  = "SALIDA"
)

// DefaultUser actor asignado cuando el movimiento no indica usuario.
const DefaultUser = "sistema"

// StockMovement fila inmutable del ledger: captura el stock antes y después de aplicar la cantidad.
// Solo la restauración de un backup puede reescribir una fila existente.
type StockMovement struct {
	ID          int64
	ProductID   int64
	Type        string // ENTRADA | SALIDA
	Quantity    int
	StockBefore int
	StockAfter  int
	Reason      string
	Date        time.Time
	User        string
}

// IsEntry indica si el movimiento suma stock.
func (m *StockMovement) IsEntry() bool { return m.Type == MovementEntry }

// IsExit indica si el movimiento resta stock.
func (m *StockMovement) IsExit() bool { return m.Type == MovementExit }

// IsValidMovementType valida el tipo ya normalizado.
func IsValidMovementType(t string) bool {
	return t == MovementEntry || t == MovementExit
}
