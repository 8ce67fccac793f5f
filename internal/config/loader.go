package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/utils"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// DefaultPath is ~/.config/daybuddy/config.yaml
func DefaultPath() (string, error) {
	return utils.ExpandPath(filepath.Join(constants.DefaultConfigDir, "config.yaml"))
}

// Load builds the configuration from defaults, then the YAML file, then
// DAYBUDDY_* environment variables, highest last.
//
// An empty path loads DefaultPath if it exists. An explicit path must exist.
//
// Environment variables map on the first underscore after the prefix:
//
//	DAYBUDDY_STORAGE_DSN     -> storage.dsn
//	DAYBUDDY_STREAK_MIN_TASKS -> streak.min_tasks
//	DAYBUDDY_SWEEP_RUN_ON_START -> sweep.run_on_start
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	content, err := readConfigFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(constants.EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.DSN, err = expandSQLitePath(cfg.Storage.DSN); err != nil {
		return nil, err
	}
	if cfg.Log.Dir, err = utils.ExpandPath(cfg.Log.Dir); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, constants.EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	return io.ReadAll(f)
}

// expandSQLitePath resolves ~ in file DSNs and leaves PostgreSQL DSNs alone
func expandSQLitePath(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "~") {
		return utils.ExpandPath(dsn)
	}
	return dsn, nil
}
