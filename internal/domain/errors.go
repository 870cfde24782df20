package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidMovement   = errors.New("movimiento inválido")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStructure         = errors.New("estructura inválida")
	ErrTransaction       = errors.New("fallo de transacción")
	ErrCategoryInUse     = errors.New("la categoría tiene productos asociados")
)

// ValidationError agrupa los problemas encontrados al validar una entrada antes de cualquier I/O.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrInvalidMovement.Error()
	}
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMovement }

// NotFoundError indica que la entidad referenciada no existe.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no existe con ID: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError lleva las cantidades disponible y solicitada para diagnóstico.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente. Disponible: %d, Solicitado: %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StructuralError: origen sin columnas requeridas o documento que no cumple el esquema.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return e.Reason }

func (e *StructuralError) Unwrap() error { return ErrStructure }

// TransactionError envuelve un fallo del almacén al abrir o confirmar una transacción.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s transaction: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrTransaction) además de la causa original.
func (e *TransactionError) Is(target error) bool { return target == ErrTransaction }
