package interfaces

import (
	"context"

	"github.com/bobmcallan/harvest/internal/models"
)

// HarvestService runs the concurrent fetch+transform pipeline.
type HarvestService interface {
	// Run processes every request to completion (success or failure),
	// persists per-symbol artifacts and the consolidated report, and
	// returns the report. It returns only after every task has
	// terminated. A per-symbol failure never fails the run; only fatal
	// misconfiguration does.
	Run(ctx context.Context, requests []models.Request) (*models.Report, error)
}
