package storage

import (
	"context"

	"github.com/julianstephens/daybuddy/internal/models"
)

// Provider is the persistence boundary shared by the aggregator, the streak
// engine, the catch-up sweep and the read-side progress views.
//
// Lookups of absent rows return an error wrapping errors.ErrNotFound.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Daily Logs

	// IncrementTaskCount atomically creates the (user, day) log or adds one
	// to its task counter, returning the row after the write.
	IncrementTaskCount(ctx context.Context, userID, day string) (models.DailyLog, error)
	// MarkPomodoroDone atomically creates the (user, day) log or sets its
	// focus-session flag, returning the row after the write.
	MarkPomodoroDone(ctx context.Context, userID, day string) (models.DailyLog, error)
	GetDailyLog(ctx context.Context, userID, day string) (models.DailyLog, error)
	// GetDailyLogs returns the user's logs with startDay <= day <= endDay, oldest first.
	GetDailyLogs(ctx context.Context, userID, startDay, endDay string) ([]models.DailyLog, error)
	// GetPendingUsers lists users owning a log for day that has not been marked processed.
	GetPendingUsers(ctx context.Context, day string) ([]string, error)

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, userID, id string) (models.Habit, error)
	// GetHabitsForUser returns the user's habits, newest first by creation.
	GetHabitsForUser(ctx context.Context, userID string) ([]models.Habit, error)
	RenameHabit(ctx context.Context, userID, id, name string) error
	// ProvisionUser adds habit unless the user already owns at least one.
	// Reports whether the habit was created.
	ProvisionUser(ctx context.Context, habit models.Habit) (bool, error)

	// Streak History
	GetStreakHistory(ctx context.Context, userID, startDay, endDay string) ([]models.StreakHistoryEntry, error)

	// WithUserTx runs fn inside one transaction scoped to userID. The user's
	// habit rows are locked for the duration. fn's error rolls everything back.
	WithUserTx(ctx context.Context, userID string, fn func(tx UserTx) error) error

	// Utils
	GetConfigPath() string
}

// UserTx is the set of streak mutations available inside WithUserTx.
// Every method is scoped to the transaction's user.
type UserTx interface {
	// GetDailyLog reads (and on backends that support it, row-locks) the user's log for day.
	GetDailyLog(ctx context.Context, day string) (models.DailyLog, error)
	// EarliestQualifiedDay is the minimum last-qualified day across the
	// user's habits, ignoring habits that never qualified. ok is false when
	// no habit has qualified yet.
	EarliestQualifiedDay(ctx context.Context) (day string, ok bool, err error)
	// ResetStreaks zeroes every habit's streak; returns the number of habits changed.
	ResetStreaks(ctx context.Context) (int64, error)
	// IncrementStreaks advances every habit that has not yet qualified on or
	// after day; returns the number of habits advanced.
	IncrementStreaks(ctx context.Context, day string) (int64, error)
	MaxStreak(ctx context.Context) (int, error)
	AppendStreakHistory(ctx context.Context, entry models.StreakHistoryEntry) error
	MarkStreakIncremented(ctx context.Context, day string) error
}

// Migrator is implemented by stores that can upgrade an existing schema in
// place. Load refuses a schema that is behind; Migrate brings it forward.
type Migrator interface {
	Migrate(ctx context.Context, logFn func(string)) (int, error)
}
