package constants

import "time"

const (
	AppName            = "daybuddy"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/daybuddy"
	DefaultDBPath      = "~/.config/daybuddy/daybuddy.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TimestampFormat is a fixed-width UTC timestamp that sorts lexicographically
	TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

	// Environment variables
	EnvPrefix           = "DAYBUDDY_"
	EnvDBConnection     = "DAYBUDDY_DB_CONNECTION"
	EnvTestPostgresDSN  = "DAYBUDDY_TEST_POSTGRES_DSN"
	UserIDHeader        = "X-User-ID"
	DefaultHabitName    = "Daily Focus"
	ProgressWindowDays  = 30
	MaxHabitNameLength  = 200
	MaxUserIDLength     = 255
	DefaultStorageTTL   = 5 * time.Second
	DefaultShutdownWait = 10 * time.Second

	// Qualification defaults
	DefaultMinTasks     = 2
	DefaultRequireFocus = true

	// Sweep defaults
	DefaultSweepTime  = "00:05"
	DefaultTimezone   = "Local"
	DefaultSweepRate  = 50.0 // evaluations per second
	DefaultSweepBurst = 10

	// Server defaults
	DefaultServerHost = "localhost"
	DefaultServerPort = 3000
)
