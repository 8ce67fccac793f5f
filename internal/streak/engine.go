package streak

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/metrics"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
	"github.com/julianstephens/daybuddy/internal/utils"
	"github.com/julianstephens/daybuddy/internal/validation"
)

// Config sets the qualification rule and the storage deadline per evaluation
type Config struct {
	MinTasks     int
	RequireFocus bool
	Timeout      time.Duration
}

// DefaultConfig is two completed tasks plus one focus session
func DefaultConfig() Config {
	return Config{
		MinTasks:     constants.DefaultMinTasks,
		RequireFocus: constants.DefaultRequireFocus,
		Timeout:      constants.DefaultStorageTTL,
	}
}

// Result describes what one evaluation observed and changed
type Result struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
	// Found is false when the user has no log for the day; nothing else is set then.
	Found            bool `json:"found"`
	Qualified        bool `json:"qualified"`
	AlreadyProcessed bool `json:"already_processed"`
	// Reset is true when a missed day zeroed the user's streaks.
	Reset             bool  `json:"reset"`
	HabitsIncremented int64 `json:"habits_incremented"`
	// Streak is the highest streak across the user's habits after the evaluation.
	Streak int `json:"streak"`
}

// Engine applies the streak rules for one (user, day) at a time
type Engine struct {
	store   storage.Provider
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Engine)

// WithMetrics records evaluation counts and durations
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the clock used for history timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store storage.Provider, cfg Config, opts ...Option) *Engine {
	if cfg.MinTasks <= 0 {
		cfg.MinTasks = constants.DefaultMinTasks
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultStorageTTL
	}
	e := &Engine{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Qualifies reports whether a day's activity meets the configured threshold
func (e *Engine) Qualifies(log models.DailyLog) bool {
	return log.TaskDoneCount >= e.cfg.MinTasks && (log.PomodoroDone || !e.cfg.RequireFocus)
}

// Evaluate brings the user's habits up to date with the log for day.
// It runs in a single user-scoped transaction and is safe to repeat: a day
// that was already counted is never counted again.
func (e *Engine) Evaluate(ctx context.Context, userID, day string) (Result, error) {
	if err := validation.UserID(userID); err != nil {
		return Result{}, err
	}
	yesterday, err := utils.AddDays(day, -1)
	if err != nil {
		return Result{}, apperrors.Invalid("%v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res := Result{UserID: userID, Day: day}

	err = e.store.WithUserTx(ctx, userID, func(tx storage.UserTx) error {
		res = Result{UserID: userID, Day: day}

		log, err := tx.GetDailyLog(ctx, day)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return apperrors.Storage("load daily log", err)
		}
		res.Found = true
		res.AlreadyProcessed = log.StreakIncremented

		earliest, ok, err := tx.EarliestQualifiedDay(ctx)
		if err != nil {
			return apperrors.Storage("load habits", err)
		}
		if ok && earliest < yesterday {
			changed, err := tx.ResetStreaks(ctx)
			if err != nil {
				return apperrors.Storage("reset streaks", err)
			}
			res.Reset = changed > 0
		}

		res.Qualified = e.Qualifies(log)
		if res.Qualified && !log.StreakIncremented {
			n, err := tx.IncrementStreaks(ctx, day)
			if err != nil {
				return apperrors.Storage("increment streaks", err)
			}
			res.HabitsIncremented = n

			if err := tx.MarkStreakIncremented(ctx, day); err != nil {
				return apperrors.Storage("mark processed", err)
			}
		}

		res.Streak, err = tx.MaxStreak(ctx)
		if err != nil {
			return apperrors.Storage("read streak", err)
		}

		if res.HabitsIncremented > 0 {
			entry := models.StreakHistoryEntry{
				UserID:     userID,
				Day:        day,
				Streak:     res.Streak,
				RecordedAt: e.now(),
			}
			if err := tx.AppendStreakHistory(ctx, entry); err != nil {
				return apperrors.Storage("append history", err)
			}
		}
		return nil
	})

	e.record(res, err, time.Since(start))
	if err != nil {
		return Result{}, apperrors.Storage("evaluate", err)
	}
	return res, nil
}

func (e *Engine) record(res Result, err error, d time.Duration) {
	outcome := metrics.OutcomeNotQualified
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !res.Found:
		outcome = metrics.OutcomeNoLog
	case res.AlreadyProcessed:
		outcome = metrics.OutcomeAlreadyProcessed
	case res.Qualified:
		outcome = metrics.OutcomeQualified
	}
	e.metrics.RecordEvaluation(outcome, d)

	if err != nil {
		logger.Error("Streak evaluation failed", "user", res.UserID, "day", res.Day, "error", err)
		return
	}
	if res.Reset {
		e.metrics.RecordReset()
		logger.Info("Streaks reset after missed day", "user", res.UserID, "day", res.Day)
	}
	if res.HabitsIncremented > 0 {
		logger.Info("Streak advanced", "user", res.UserID, "day", res.Day,
			"habits", res.HabitsIncremented, "streak", res.Streak)
	} else {
		logger.Debug("Streak evaluated", "user", res.UserID, "day", res.Day,
			"found", res.Found, "qualified", res.Qualified, "already_processed", res.AlreadyProcessed)
	}
}
