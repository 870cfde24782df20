package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// MaxQuantity tope de cantidades y stock: columnas INTEGER de PostgreSQL.
const MaxQuantity = math.MaxInt32

// ApplyMovement implementa la regla del ledger (servicio de dominio):
//
//	ENTRADA: stockNuevo = stockAnterior + cantidad
//	SALIDA:  stockNuevo = stockAnterior - cantidad, solo si stockAnterior >= cantidad
//
// El tipo debe venir normalizado (mayúsculas) y la cantidad ser positiva.
func ApplyMovement(stockBefore int, movementType string, quantity int) (int, error) {
	if quantity <= 0 {
		return stockBefore, &domain.ValidationError{Problems: []string{"la cantidad debe ser mayor a 0"}}
	}
	switch movementType {
	case entity.MovementEntry:
		if quantity > MaxQuantity-stockBefore {
			return stockBefore, &domain.ValidationError{Problems: []string{
				fmt.Sprintf("el stock resultante supera el máximo permitido (%d): %d + %d", MaxQuantity, stockBefore, quantity),
			}}
		}
		return stockBefore + quantity, nil
	case entity.MovementExit:
		if stockBefore < quantity {
			return stockBefore, &domain.InsufficientStockError{Available: stockBefore, Requested: quantity}
		}
		return stockBefore - quantity, nil
	}
	return stockBefore, &domain.ValidationError{Problems: []string{"tipo de movimiento inválido: " + movementType}}
}
