package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 5, config.Harvest.MaxWorkers)
	assert.Equal(t, "data", config.Storage.Path)
	assert.Equal(t, "https://query1.finance.yahoo.com", config.Clients.Yahoo.BaseURL)
	assert.Equal(t, "info", config.Logging.Level)

	min, max := config.Harvest.GetJitterBounds()
	assert.Equal(t, 100*time.Millisecond, min)
	assert.Equal(t, 500*time.Millisecond, max)
	assert.Equal(t, 30*time.Second, config.Harvest.GetTaskTimeout())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.toml")
	content := `
[harvest]
symbols = ["AAPL", "MSFT"]
start_date = "2024-01-01"
end_date = "2024-01-31"
max_workers = 3

[storage]
path = "/tmp/harvest-data"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, config.Harvest.Symbols)
	assert.Equal(t, 3, config.Harvest.MaxWorkers)
	assert.Equal(t, "/tmp/harvest-data", config.Storage.Path)
	assert.Equal(t, "debug", config.Logging.Level)

	from, to, err := config.Harvest.DateRange()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", from.Format("2006-01-02"))
	assert.Equal(t, "2024-01-31", to.Format("2006-01-02"))
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 5, config.Harvest.MaxWorkers)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HARVEST_LOG_LEVEL", "warn")
	t.Setenv("HARVEST_DATA_PATH", "/srv/harvest")
	t.Setenv("HARVEST_WORKERS", "8")
	t.Setenv("HARVEST_SYMBOLS", "tsla, nvda ,")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/srv/harvest", config.Storage.Path)
	assert.Equal(t, 8, config.Harvest.MaxWorkers)
	assert.Equal(t, []string{"TSLA", "NVDA"}, config.Harvest.Symbols)
}

func TestDateRangeRejectsMalformedDates(t *testing.T) {
	c := HarvestConfig{StartDate: "01/02/2024"}
	_, _, err := c.DateRange()
	assert.Error(t, err)
}

func TestJitterBoundsFallBackOnBadValues(t *testing.T) {
	c := HarvestConfig{JitterMin: "nope", JitterMax: "also nope"}
	min, max := c.GetJitterBounds()
	assert.Equal(t, 100*time.Millisecond, min)
	assert.Equal(t, 500*time.Millisecond, max)
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT"}, SplitSymbols("aapl,  msft"))
	assert.Nil(t, SplitSymbols(" , ,"))
}
