package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/streak"
	"github.com/julianstephens/daybuddy/internal/sweep"
	"github.com/julianstephens/daybuddy/internal/utils"
)

type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Streak  StreakConfig  `koanf:"streak"`
	Sweep   SweepConfig   `koanf:"sweep"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
}

type StorageConfig struct {
	// DSN is a SQLite file path, a PostgreSQL URL or DSN, or "keyring"
	DSN     string        `koanf:"dsn"`
	Timeout time.Duration `koanf:"timeout"`
}

type StreakConfig struct {
	MinTasks     int  `koanf:"min_tasks"`
	RequireFocus bool `koanf:"require_focus"`
}

type SweepConfig struct {
	Time       string  `koanf:"time"`
	Timezone   string  `koanf:"timezone"`
	Rate       float64 `koanf:"rate"`
	Burst      int     `koanf:"burst"`
	RunOnStart bool    `koanf:"run_on_start"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Debug   bool   `koanf:"debug"`
	Verbose bool   `koanf:"verbose"`
	Dir     string `koanf:"dir"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			DSN:     constants.DefaultDBPath,
			Timeout: constants.DefaultStorageTTL,
		},
		Streak: StreakConfig{
			MinTasks:     constants.DefaultMinTasks,
			RequireFocus: constants.DefaultRequireFocus,
		},
		Sweep: SweepConfig{
			Time:     constants.DefaultSweepTime,
			Timezone: constants.DefaultTimezone,
			Rate:     constants.DefaultSweepRate,
			Burst:    constants.DefaultSweepBurst,
		},
		Server: ServerConfig{
			Host:            constants.DefaultServerHost,
			Port:            constants.DefaultServerPort,
			ShutdownTimeout: constants.DefaultShutdownWait,
		},
		Log: LogConfig{
			Dir: constants.DefaultConfigDir,
		},
	}
}

func (c *Config) Validate() error {
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}
	if c.Storage.Timeout <= 0 {
		return errors.New("storage.timeout must be positive")
	}
	if c.Streak.MinTasks < 1 {
		return fmt.Errorf("invalid streak.min_tasks: %d (must be at least 1)", c.Streak.MinTasks)
	}
	if _, _, err := utils.ParseTimeOfDay(c.Sweep.Time); err != nil {
		return fmt.Errorf("invalid sweep.time: %w", err)
	}
	if _, err := utils.LoadLocation(c.Sweep.Timezone); err != nil {
		return fmt.Errorf("invalid sweep.timezone: %w", err)
	}
	if c.Sweep.Rate < 0 {
		return fmt.Errorf("invalid sweep.rate: %v (must not be negative)", c.Sweep.Rate)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) StreakEngine() streak.Config {
	return streak.Config{
		MinTasks:     c.Streak.MinTasks,
		RequireFocus: c.Streak.RequireFocus,
		Timeout:      c.Storage.Timeout,
	}
}

func (c *Config) SweepScheduler() sweep.Config {
	return sweep.Config{
		Time:       c.Sweep.Time,
		Timezone:   c.Sweep.Timezone,
		Rate:       c.Sweep.Rate,
		Burst:      c.Sweep.Burst,
		RunOnStart: c.Sweep.RunOnStart,
	}
}

// Location is the timezone "today" is computed in for the adapters
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Sweep.Timezone)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
