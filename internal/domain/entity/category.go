package entity

import (
	"strings"
	"time"
)

// CategoryAutoDescription descripción de las categorías creadas al cargar productos.
const CategoryAutoDescription = "Categoría creada automáticamente"

// Category agrupa productos por nombre (único).
type Category struct {
	ID          int64
	Name        string
	Description string // vacío = sin descripción
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsValid el nombre es obligatorio.
func (c *Category) IsValid() bool {
	return strings.TrimSpace(c.Name) != ""
}
