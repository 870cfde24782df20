package dto

import "time"

// ExportResult resultado de una exportación XML.
type ExportResult struct {
	Path       string    `json:"path"`
	Categories int       `json:"categories"`
	Products   int       `json:"products"`
	Movements  int       `json:"movements"`
	Bytes      int64     `json:"bytes"`
	ExportedAt time.Time `json:"exported_at"`
}

// ValidationReport resultado de validar un documento contra el XSD.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// UpsertCount insertados y actualizados de un tipo de entidad.
type UpsertCount struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// RestoreResult resultado de una restauración confirmada.
type RestoreResult struct {
	Cleared    bool        `json:"cleared"`
	Categories UpsertCount `json:"categories"`
	Products   UpsertCount `json:"products"`
	Movements  UpsertCount `json:"movements"`
}
