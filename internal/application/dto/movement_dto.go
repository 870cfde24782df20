package dto

import "time"

// RegisterMovementRequest body para POST /api/movements. El usuario sale del JWT.
type RegisterMovementRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason,omitempty" validate:"max=255"`
}

// RegisterBatchRequest body para POST /api/movements/batch (todo o nada).
type RegisterBatchRequest struct {
	Movements []RegisterMovementRequest `json:"movements" validate:"required,min=1,dive"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason,omitempty"`
	Date        time.Time `json:"date"`
	User        string    `json:"user"`
}

// MovementCreatedResponse respuesta de alta: ID asignado.
type MovementCreatedResponse struct {
	ID int64 `json:"id"`
}

// BatchCreatedResponse respuesta de lote aplicado.
type BatchCreatedResponse struct {
	Applied int `json:"applied"`
}

// MovementListResponse lista de movimientos (orden cronológico inverso).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Total int                `json:"total"`
}

// MovementSummaryResponse conteos del ledger.
type MovementSummaryResponse struct {
	Total   int `json:"total"`
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
}
