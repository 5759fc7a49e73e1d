package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "DB_PATH", "PARAMS_PATH", "LOG_LEVEL", "RUN_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultParams(), cfg.Params)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"horizon_days: 14\nquantile: 0.9\nshortfall_penalty: 2.5\n"), 0o644))

	params, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 14, params.HorizonDays)
	assert.InDelta(t, 0.9, params.Quantile, 1e-9)
	assert.InDelta(t, 2.5, params.ShortfallPenalty, 1e-9)
	// Unset fields keep defaults.
	assert.Equal(t, "15:00", params.PlanningTime)
}

func TestLoadParams_Invalid(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		yaml string
	}{
		{"bad quantile", "quantile: 1.5\n"},
		{"bad horizon", "horizon_days: 0\n"},
		{"negative penalty", "shortfall_penalty: -1\n"},
		{"malformed", "horizon_days: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := LoadParams(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadParams_MissingFile(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
