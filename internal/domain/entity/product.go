package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario. Stock es la proyección materializada
// del último movimiento registrado en el ledger.
type Product struct {
	ID        int64
	Name      string
	Category  string // nombre de una categoría existente
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalValue devuelve precio × stock.
func (p *Product) TotalValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// SetStock asigna el stock; un valor negativo se fija en 0.
func (p *Product) SetStock(n int) {
	if n < 0 {
		n = 0
	}
	p.Stock = n
}

// Normalize recorta nombre y categoría.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
}

// IsValid nombre y categoría no vacíos, precio no negativo.
func (p *Product) IsValid() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Category) != "" &&
		!p.Price.IsNegative() &&
		p.Stock >= 0
}
