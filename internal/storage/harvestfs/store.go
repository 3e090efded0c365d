// Package harvestfs implements file-based storage for per-symbol series
// artifacts and the consolidated run report.
package harvestfs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/harvest/internal/common"
	"github.com/bobmcallan/harvest/internal/interfaces"
	"github.com/bobmcallan/harvest/internal/models"
)

const reportFile = "report.json"

var csvHeader = []string{
	"date", "open", "high", "low", "close", "volume",
	"daily_return", "rolling_volatility", "rolling_sma",
}

// Store provides file-based storage: one CSV per symbol under series/,
// plus report.json at the root. All writes go through a temp file and
// rename, so re-saving the same key overwrites cleanly.
type Store struct {
	basePath  string
	seriesDir string
	logger    *common.Logger
}

// NewStore creates a new harvest file store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store path %s: %w", path, err)
	}
	seriesDir := filepath.Join(path, "series")
	if err := os.MkdirAll(seriesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create series path %s: %w", seriesDir, err)
	}

	logger.Info().Str("path", path).Msg("Harvest store opened")
	return &Store{
		basePath:  path,
		seriesDir: seriesDir,
		logger:    logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// SaveSeries writes the series as a CSV artifact named from the symbol
// and date range.
func (s *Store) SaveSeries(_ context.Context, series *models.Series) error {
	if series == nil || series.Symbol == "" {
		return fmt.Errorf("series has no symbol")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, bar := range series.Bars {
		record := []string{
			bar.Date.Format("2006-01-02"),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			strconv.FormatInt(bar.Volume, 10),
			formatNullable(bar.DailyReturn),
			formatNullable(bar.RollingVolatility),
			formatNullable(bar.RollingSMA),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	key := artifactKey(series.Symbol, series.From, series.To)
	if err := writeAtomic(s.seriesDir, key+".csv", buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save series for %s: %w", series.Symbol, err)
	}
	s.logger.Debug().Str("symbol", series.Symbol).Str("key", key).Msg("Series saved")
	return nil
}

// LoadSeries reads a series artifact back into memory.
func (s *Store) LoadSeries(_ context.Context, symbol string, from, to time.Time) (*models.Series, error) {
	key := artifactKey(symbol, from, to)
	path := filepath.Join(s.seriesDir, key+".csv")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("series for '%s' not found", symbol)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		return nil, fmt.Errorf("unexpected header in %s", path)
	}

	series := &models.Series{
		Symbol: strings.ToUpper(symbol),
		From:   from,
		To:     to,
		Bars:   make([]models.Bar, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		bar, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("bad row in %s: %w", path, err)
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, nil
}

// SaveReport writes the run report, replacing any prior report.
func (s *Store) SaveReport(_ context.Context, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := writeAtomic(s.basePath, reportFile, data); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Debug().Str("run_id", report.RunID).Msg("Report saved")
	return nil
}

// LoadReport reads the last saved run report.
func (s *Store) LoadReport(_ context.Context) (*models.Report, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, reportFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no report found")
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListArtifacts returns the keys of all saved series artifacts.
func (s *Store) ListArtifacts(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.seriesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", s.seriesDir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".csv") && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, strings.TrimSuffix(name, ".csv"))
		}
	}
	return keys, nil
}

// PurgeSeries removes all series artifacts and returns the count.
func (s *Store) PurgeSeries() int {
	keys, err := s.ListArtifacts(context.Background())
	if err != nil {
		return 0
	}
	count := 0
	for _, key := range keys {
		if os.Remove(filepath.Join(s.seriesDir, key+".csv")) == nil {
			count++
		}
	}
	return count
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// --- helpers ---

func artifactKey(symbol string, from, to time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		sanitizeKey(strings.ToUpper(symbol)),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"))
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, name)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseRow(record []string) (models.Bar, error) {
	if len(record) != len(csvHeader) {
		return models.Bar{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	date, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return models.Bar{}, fmt.Errorf("bad date %q: %w", record[0], err)
	}

	floats := make([]float64, 4)
	for i, raw := range record[1:5] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("bad %s %q: %w", csvHeader[i+1], raw, err)
		}
		floats[i] = v
	}

	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("bad volume %q: %w", record[5], err)
	}

	bar := models.Bar{
		Date:   date,
		Open:   floats[0],
		High:   floats[1],
		Low:    floats[2],
		Close:  floats[3],
		Volume: volume,
	}

	nullables := []**float64{&bar.DailyReturn, &bar.RollingVolatility, &bar.RollingSMA}
	for i, raw := range record[6:9] {
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("bad %s %q: %w", csvHeader[i+6], raw, err)
		}
		*nullables[i] = &v
	}

	return bar, nil
}

// Ensure Store implements SeriesStore
var _ interfaces.SeriesStore = (*Store)(nil)
