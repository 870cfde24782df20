package entity

import "time"

// Snapshot contenido completo de un backup: categorías, productos y movimientos.
type Snapshot struct {
	ExportedAt time.Time
	Version    string
	Categories []*Category
	Products   []*Product
	Movements  []*StockMovement
}
