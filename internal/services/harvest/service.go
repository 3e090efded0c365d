// Package harvest runs the concurrent fetch+transform pipeline: a bounded
// worker pool fetches one symbol per task, derives metrics, persists the
// series artifact, and reports the outcome to a single collector.
package harvest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/harvest/internal/common"
	"github.com/bobmcallan/harvest/internal/interfaces"
	"github.com/bobmcallan/harvest/internal/models"
	"github.com/bobmcallan/harvest/internal/transform"
)

// Service implements HarvestService
type Service struct {
	client interfaces.SourceClient
	store  interfaces.SeriesStore
	logger *common.Logger
	config common.HarvestConfig
}

// NewService creates a new harvest service
func NewService(
	client interfaces.SourceClient,
	store interfaces.SeriesStore,
	logger *common.Logger,
	config common.HarvestConfig,
) *Service {
	return &Service{
		client: client,
		store:  store,
		logger: logger,
		config: config,
	}
}

// taskResult is the outcome of one symbol's task, sent from a worker to
// the collector. Exactly one of metrics or err is set.
type taskResult struct {
	symbol  string
	metrics *models.SymbolMetrics
	err     *models.TaskError
}

// Run processes every request to completion and returns the consolidated
// report. Workers never share mutable state: results flow over a channel
// to one collector goroutine, and the report is assembled only after all
// workers have joined.
func (s *Service) Run(ctx context.Context, requests []models.Request) (*models.Report, error) {
	workers := s.config.MaxWorkers
	if workers < 1 {
		return nil, fmt.Errorf("max_workers must be at least 1, got %d", workers)
	}

	started := time.Now()
	s.logger.Info().
		Int("symbols", len(requests)).
		Int("workers", workers).
		Msg("Starting harvest run")

	jobs := make(chan models.Request)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				results <- s.runTask(ctx, req)
			}
		}()
	}

	// Collector owns the result maps; no other goroutine touches them.
	metricsBySymbol := make(map[string]*models.SymbolMetrics, len(requests))
	taskErrors := make(map[string]string)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			if res.err != nil {
				s.logger.Warn().
					Str("symbol", res.symbol).
					Str("kind", string(res.err.Kind)).
					Msg(res.err.Detail())
				taskErrors[res.symbol] = res.err.Detail()
				continue
			}
			s.logger.Debug().Str("symbol", res.symbol).Msg("Symbol processed")
			metricsBySymbol[res.symbol] = res.metrics
		}
	}()

	go func() {
		defer close(jobs)
		for _, req := range requests {
			jobs <- req
		}
	}()

	// Join barrier: the report is built only after every task terminated
	// and the collector has drained the results channel.
	wg.Wait()
	close(results)
	<-collectorDone

	report := &models.Report{
		RunID:           uuid.NewString(),
		StartedAt:       started.UTC(),
		DurationMS:      time.Since(started).Milliseconds(),
		SuccessfulCount: len(metricsBySymbol),
		FailedCount:     len(taskErrors),
		MetricsBySymbol: metricsBySymbol,
		Errors:          taskErrors,
	}
	if from, to, ok := overallRange(requests); ok {
		report.StartDate = from.Format("2006-01-02")
		report.EndDate = to.Format("2006-01-02")
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save run report")
		return report, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info().
		Int64("duration_ms", report.DurationMS).
		Int("successful", report.SuccessfulCount).
		Int("failed", report.FailedCount).
		Msg("Harvest run complete")

	return report, nil
}

// runTask executes the full fetch→transform→persist pipeline for one
// symbol. Every failure path returns a tagged task error; nothing
// escapes to sibling tasks, including panics.
func (s *Service) runTask(ctx context.Context, req models.Request) (res taskResult) {
	res.symbol = req.Symbol

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("symbol", req.Symbol).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in harvest task")
			res.metrics = nil
			res.err = models.NewTaskError(models.TaskErrorTransform, req.Symbol,
				fmt.Sprintf("task panicked: %v", r), nil)
		}
	}()

	if err := req.Validate(); err != nil {
		res.err = models.NewTaskError(models.TaskErrorValidation, req.Symbol, err.Error(), nil)
		return res
	}

	// Politeness delay spreads request bursts across the pool
	if err := s.jitter(ctx); err != nil {
		res.err = models.NewTaskError(models.TaskErrorFetch, req.Symbol, "canceled before fetch", err)
		return res
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.GetTaskTimeout())
	defer cancel()

	series, err := s.client.GetHistory(fetchCtx, req.Symbol, req.From, req.To)
	if err != nil {
		res.err = models.NewTaskError(models.TaskErrorFetch, req.Symbol, "failed to fetch history", err)
		return res
	}

	if len(series.Bars) == 0 {
		res.err = models.NewTaskError(models.TaskErrorEmptyData, req.Symbol,
			fmt.Sprintf("no data available for %s", req.Symbol), nil)
		return res
	}

	if err := transform.Derive(series); err != nil {
		res.err = models.NewTaskError(models.TaskErrorTransform, req.Symbol, "failed to derive columns", err)
		return res
	}

	metrics, err := transform.Summarize(series)
	if err != nil {
		res.err = models.NewTaskError(models.TaskErrorTransform, req.Symbol, "failed to summarize", err)
		return res
	}

	// The artifact must be durable before the symbol counts as successful
	if err := s.store.SaveSeries(ctx, series); err != nil {
		res.err = models.NewTaskError(models.TaskErrorPersistence, req.Symbol, "failed to save series", err)
		return res
	}

	res.metrics = metrics
	return res
}

// jitter sleeps a bounded random duration before the fetch, honoring
// cancellation.
func (s *Service) jitter(ctx context.Context) error {
	min, max := s.config.GetJitterBounds()
	d := min
	if max > min {
		d += time.Duration(rand.Int64N(int64(max - min)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// overallRange returns the widest date range covered by the requests.
func overallRange(requests []models.Request) (time.Time, time.Time, bool) {
	if len(requests) == 0 {
		return time.Time{}, time.Time{}, false
	}
	from, to := requests[0].From, requests[0].To
	for _, req := range requests[1:] {
		if req.From.Before(from) {
			from = req.From
		}
		if req.To.After(to) {
			to = req.To
		}
	}
	return from, to, true
}

// Ensure Service implements HarvestService
var _ interfaces.HarvestService = (*Service)(nil)
