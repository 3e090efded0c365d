package models

import "time"

// Report is the consolidated outcome of one harvest run. It is built once,
// after every task has terminated, and is immutable thereafter.
// SuccessfulCount + FailedCount always equals the number of dispatched
// symbols, and a symbol appears in exactly one of MetricsBySymbol or Errors.
type Report struct {
	RunID           string                    `json:"run_id"`
	StartedAt       time.Time                 `json:"started_at"`
	DurationMS      int64                     `json:"duration_ms"`
	StartDate       string                    `json:"start_date"`
	EndDate         string                    `json:"end_date"`
	SuccessfulCount int                       `json:"successful_count"`
	FailedCount     int                       `json:"failed_count"`
	MetricsBySymbol map[string]*SymbolMetrics `json:"metrics_by_symbol"`
	Errors          map[string]string         `json:"errors"`
}
