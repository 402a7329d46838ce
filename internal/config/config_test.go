package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "defendants_%d.xlsx", cfg.FilePattern)
	assert.Equal(t, 0, cfg.LookbackYears)
	assert.Equal(t, []string{"ethnicity", "race", "race/ethnicity", "race_ethnicity", "defendant race"}, cfg.EthnicityColumns)
	assert.Equal(t, "split", cfg.Layout)
	assert.Equal(t, 480, cfg.ChartWidth)
	assert.Equal(t, "svg", cfg.ChartFormat)
	assert.Equal(t, 60, cfg.HTTPTimeoutSec)
	assert.Equal(t, 2.0, cfg.HTTPRequestsPerSec)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.DataDir = "/srv/court"
	cfg.LookbackYears = 2
	cfg.Layout = "combined"
	require.NoError(t, Save(cfg, path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "data_dir: /srv/court")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/court", got.DataDir)
	assert.Equal(t, 2, got.LookbackYears)
	assert.Equal(t, "combined", got.Layout)
}

func TestSaveDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, Save(&Global{ServerPort: 9000}, ""))

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, got.ServerPort)
	assert.FileExists(t, filepath.Join(home, ".defstat", "config.yaml"))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFSTAT_LOOKBACK_YEARS", "4")
	t.Setenv("DEFSTAT_SOURCE_URL", "https://example.org/data")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.LookbackYears)
	assert.Equal(t, "https://example.org/data", cfg.SourceURL)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger("debug", "json"))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger("", "console"))
	assert.False(t, zap.L().Core().Enabled(zap.DebugLevel))

	assert.Error(t, InitLogger("loud", "console"))
}
