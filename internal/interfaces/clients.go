// Package interfaces defines service contracts for Harvest
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/harvest/internal/models"
)

// SourceClient fetches raw daily bar history for one symbol from an
// external provider. Implementations own their retry and rate-limit
// behavior; callers treat any failure, empty result, or timeout as a
// per-symbol failure.
type SourceClient interface {
	// GetHistory returns daily bars for the symbol between from and to
	// inclusive, ascending by date. An empty series is not an error at
	// this boundary.
	GetHistory(ctx context.Context, symbol string, from, to time.Time) (*models.Series, error)
}
