// Package config resolves journey settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB         = "JOURNEY_DB"
	EnvLogLevel   = "JOURNEY_LOG_LEVEL"
	EnvLTVBuckets = "JOURNEY_LTV_BUCKETS"
	EnvPathLimit  = "JOURNEY_PATH_LIMIT"
	EnvFormat     = "JOURNEY_FORMAT"
)

// Defaults applied when neither the environment nor .env sets a value.
const (
	DefaultLTVBuckets = 5
	DefaultPathLimit  = 10
	DefaultFormat     = "text"
)

// Config holds resolved settings. CLI flags override these values.
type Config struct {
	DBPath     string
	LogLevel   slog.Level
	LTVBuckets int
	PathLimit  int
	Format     string
}

// Load reads .env from the working directory, if present, then the
// process environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom resolves settings from the given .env files and the process
// environment. Missing files are skipped. Process variables win over
// file values, and earlier files win over later ones.
func LoadFrom(envFiles ...string) (*Config, error) {
	fileVars := map[string]string{}
	for i := len(envFiles) - 1; i >= 0; i-- {
		vars, err := godotenv.Read(envFiles[i])
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFiles[i], err)
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	cfg := &Config{Format: DefaultFormat}

	dbPath, ok := lookup(EnvDB)
	if !ok || strings.TrimSpace(dbPath) == "" {
		var err error
		if dbPath, err = DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	cfg.DBPath = dbPath

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, v, err)
		}
	}

	var err error
	if cfg.LTVBuckets, err = positiveInt(lookup, EnvLTVBuckets, DefaultLTVBuckets); err != nil {
		return nil, err
	}
	if cfg.PathLimit, err = positiveInt(lookup, EnvPathLimit, DefaultPathLimit); err != nil {
		return nil, err
	}

	if v, ok := lookup(EnvFormat); ok && v != "" {
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("invalid %s %q: must be text or json", EnvFormat, v)
		}
		cfg.Format = v
	}
	return cfg, nil
}

// DefaultDBPath returns ~/.journey/journey.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".journey", "journey.db"), nil
}

func positiveInt(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return n, nil
}
