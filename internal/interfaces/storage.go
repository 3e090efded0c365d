package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/harvest/internal/models"
)

// SeriesStore persists per-symbol derived series and the run report.
type SeriesStore interface {
	// SaveSeries writes one tabular artifact for the series, named
	// deterministically from symbol and date range. Saving the same
	// series twice overwrites cleanly.
	SaveSeries(ctx context.Context, series *models.Series) error

	// LoadSeries reads a previously saved artifact back.
	LoadSeries(ctx context.Context, symbol string, from, to time.Time) (*models.Series, error)

	// SaveReport writes the run report, replacing any prior run's report.
	SaveReport(ctx context.Context, report *models.Report) error

	// LoadReport reads the last saved run report.
	LoadReport(ctx context.Context) (*models.Report, error)

	// ListArtifacts returns the keys of all saved series artifacts.
	ListArtifacts(ctx context.Context) ([]string, error)

	// PurgeSeries removes all series artifacts and returns the count.
	PurgeSeries() int

	// DataPath returns the base data directory path.
	DataPath() string

	Close() error
}
