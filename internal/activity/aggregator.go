package activity

import (
	"context"
	"time"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/metrics"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
	"github.com/julianstephens/daybuddy/internal/streak"
	"github.com/julianstephens/daybuddy/internal/validation"
)

// Activity kinds, used as the metrics label
const (
	KindTask         = "task"
	KindFocusSession = "focus_session"
)

// Evaluator is the part of the streak engine the aggregator triggers
type Evaluator interface {
	Evaluate(ctx context.Context, userID, day string) (streak.Result, error)
}

// Outcome is the log after a recorded event and the evaluation it triggered.
// Evaluation is nil when the evaluation failed; the event itself is still stored.
type Outcome struct {
	Log        models.DailyLog `json:"log"`
	Evaluation *streak.Result  `json:"evaluation,omitempty"`
}

// Aggregator records completed tasks and focus sessions into the daily log
type Aggregator struct {
	store   storage.Provider
	engine  Evaluator
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewAggregator(store storage.Provider, engine Evaluator, m *metrics.Metrics, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = constants.DefaultStorageTTL
	}
	return &Aggregator{
		store:   store,
		engine:  engine,
		metrics: m,
		timeout: timeout,
	}
}

// RecordTaskCompletion adds one completed task to the user's log for day
func (a *Aggregator) RecordTaskCompletion(ctx context.Context, userID, day string) (Outcome, error) {
	return a.record(ctx, KindTask, userID, day, a.store.IncrementTaskCount)
}

// RecordFocusSessionCompletion marks a completed focus session on the user's log for day
func (a *Aggregator) RecordFocusSessionCompletion(ctx context.Context, userID, day string) (Outcome, error) {
	return a.record(ctx, KindFocusSession, userID, day, a.store.MarkPomodoroDone)
}

type upsertFunc func(ctx context.Context, userID, day string) (models.DailyLog, error)

func (a *Aggregator) record(ctx context.Context, kind, userID, day string, upsert upsertFunc) (Outcome, error) {
	if err := validation.UserID(userID); err != nil {
		return Outcome{}, err
	}
	if err := validation.Day(day); err != nil {
		return Outcome{}, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	log, err := upsert(writeCtx, userID, day)
	cancel()
	if err != nil {
		return Outcome{}, apperrors.Storage("record "+kind, err)
	}
	a.metrics.RecordActivity(kind)
	logger.Debug("Activity recorded", "kind", kind, "user", userID, "day", day,
		"tasks", log.TaskDoneCount, "focus", log.PomodoroDone)

	out := Outcome{Log: log}
	res, err := a.engine.Evaluate(ctx, userID, day)
	if err != nil {
		// The event is stored; the sweep picks the day up again
		logger.Warn("Evaluation after activity failed", "kind", kind, "user", userID, "day", day, "error", err)
		return out, nil
	}
	out.Evaluation = &res
	return out, nil
}
