package dto

import "time"

// LotStatus resultado de un lote del importador.
type LotStatus struct {
	Index   int    `json:"index"`
	Size    int    `json:"size"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ImportResult resumen de una importación masiva de movimientos.
// Success=false solo cuando el origen no se pudo leer o validar; los lotes fallidos
// se cuentan en Failed/LotsFailed sin cambiar Success.
type ImportResult struct {
	RunID         string      `json:"run_id"`
	Success       bool        `json:"success"`
	TotalLines    int         `json:"total_lines"`
	Succeeded     int         `json:"succeeded"`
	Failed        int         `json:"failed"`
	LotsSucceeded int         `json:"lots_succeeded"`
	LotsFailed    int         `json:"lots_failed"`
	Lots          []LotStatus `json:"lots"`
	Errors        []string    `json:"errors"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}

// SuccessRate porcentaje de líneas aplicadas sobre las leídas.
func (r *ImportResult) SuccessRate() float64 {
	if r.TotalLines == 0 {
		return 0
	}
	return float64(r.Succeeded) * 100 / float64(r.TotalLines)
}

// Duration tiempo total de la ejecución.
func (r *ImportResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
