package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every journey variable for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDB, EnvLogLevel, EnvLTVBuckets, EnvPathLimit, EnvFormat} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/analyst")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		DBPath:     filepath.Join("/home/analyst", ".journey", "journey.db"),
		LogLevel:   slog.LevelInfo,
		LTVBuckets: DefaultLTVBuckets,
		PathLimit:  DefaultPathLimit,
		Format:     DefaultFormat,
	}, cfg)
}

func TestLoadFrom_EnvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnv(t, "JOURNEY_DB=/tmp/j.db\nJOURNEY_LOG_LEVEL=debug\nJOURNEY_LTV_BUCKETS=3\nJOURNEY_PATH_LIMIT=25\nJOURNEY_FORMAT=json\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/j.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.LTVBuckets)
	assert.Equal(t, 25, cfg.PathLimit)
	assert.Equal(t, "json", cfg.Format)

	_, set := os.LookupEnv(EnvDB)
	assert.False(t, set, "file values do not leak into the process environment")
}

func TestLoadFrom_ProcessEnvWins(t *testing.T) {
	clearEnv(t)
	path := writeEnv(t, "JOURNEY_PATH_LIMIT=25\n")
	t.Setenv(EnvPathLimit, "7")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.PathLimit)
}

func TestLoadFrom_EarlierFileWins(t *testing.T) {
	clearEnv(t)
	first := writeEnv(t, "JOURNEY_LTV_BUCKETS=2\n")
	second := writeEnv(t, "JOURNEY_LTV_BUCKETS=9\nJOURNEY_FORMAT=json\n")

	cfg, err := LoadFrom(first, second)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.LTVBuckets)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{EnvLogLevel, "loud", "invalid JOURNEY_LOG_LEVEL"},
		{EnvLTVBuckets, "many", "invalid JOURNEY_LTV_BUCKETS"},
		{EnvLTVBuckets, "0", "must be positive"},
		{EnvPathLimit, "-3", "must be positive"},
		{EnvFormat, "xml", "must be text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFrom()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
