package sweep

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/metrics"
	"github.com/julianstephens/daybuddy/internal/storage"
	"github.com/julianstephens/daybuddy/internal/streak"
	"github.com/julianstephens/daybuddy/internal/utils"
)

// Evaluator is the part of the streak engine the sweep drives
type Evaluator interface {
	Evaluate(ctx context.Context, userID, day string) (streak.Result, error)
}

type Config struct {
	// Time is the HH:MM wall-clock time the sweep fires each day
	Time     string
	Timezone string
	// Rate caps evaluations per second; zero or less means unlimited
	Rate       float64
	Burst      int
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		Time:     constants.DefaultSweepTime,
		Timezone: constants.DefaultTimezone,
		Rate:     constants.DefaultSweepRate,
		Burst:    constants.DefaultSweepBurst,
	}
}

// Report summarizes one sweep over a day's unprocessed logs
type Report struct {
	Day        string `json:"day"`
	Candidates int    `json:"candidates"`
	Evaluated  int    `json:"evaluated"`
	Failed     int    `json:"failed"`
}

// Scheduler re-evaluates logs the synchronous trigger path missed, once a
// day shortly after midnight.
type Scheduler struct {
	store   storage.Provider
	engine  Evaluator
	metrics *metrics.Metrics
	limiter *rate.Limiter

	hour, minute int
	loc          *time.Location
	runOnStart   bool

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

func New(store storage.Provider, engine Evaluator, m *metrics.Metrics, cfg Config) (*Scheduler, error) {
	hour, minute, err := utils.ParseTimeOfDay(cfg.Time)
	if err != nil {
		return nil, fmt.Errorf("sweep time: %w", err)
	}
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("sweep timezone: %w", err)
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Scheduler{
		store:      store,
		engine:     engine,
		metrics:    m,
		limiter:    rate.NewLimiter(limit, burst),
		hour:       hour,
		minute:     minute,
		loc:        loc,
		runOnStart: cfg.RunOnStart,
		now:        time.Now,
		after:      time.After,
	}, nil
}

// Location is the timezone days are computed in
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// NextDue returns the first sweep instant strictly after now
func (s *Scheduler) NextDue(now time.Time) time.Time {
	local := now.In(s.loc)
	y, m, d := local.Date()
	due := time.Date(y, m, d, s.hour, s.minute, 0, 0, s.loc)
	if !due.After(local) {
		due = time.Date(y, m, d+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return due
}

// Yesterday is the calendar day before the one containing at
func (s *Scheduler) Yesterday(at time.Time) string {
	local := at.In(s.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, s.loc).Format(constants.DateFormat)
}

// Sweep evaluates every user with an unprocessed log on day. A failing user
// is logged and counted and the rest are still evaluated.
func (s *Scheduler) Sweep(ctx context.Context, day string) (Report, error) {
	report := Report{Day: day}
	if _, err := utils.ParseDay(day); err != nil {
		return report, apperrors.Invalid("%v", err)
	}

	users, err := s.store.GetPendingUsers(ctx, day)
	if err != nil {
		return report, apperrors.Storage("list pending users", err)
	}
	report.Candidates = len(users)
	logger.Info("Catch-up sweep started", "day", day, "candidates", len(users))

	for _, userID := range users {
		if err := s.limiter.Wait(ctx); err != nil {
			s.finish(report)
			return report, err
		}
		if _, err := s.engine.Evaluate(ctx, userID, day); err != nil {
			report.Failed++
			logger.Error("Catch-up evaluation failed", "user", userID, "day", day, "error", err)
			continue
		}
		report.Evaluated++
	}

	s.finish(report)
	return report, nil
}

func (s *Scheduler) finish(report Report) {
	s.metrics.RecordSweep(report.Evaluated, report.Failed, s.now())
	logger.Info("Catch-up sweep finished", "day", report.Day,
		"candidates", report.Candidates, "evaluated", report.Evaluated, "failed", report.Failed)
}

// Run sweeps yesterday's logs at each due time until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	if s.runOnStart {
		s.sweepDayBefore(ctx, s.now())
	}

	for {
		now := s.now()
		due := s.NextDue(now)
		logger.Debug("Next catch-up sweep scheduled", "at", due)

		select {
		case <-ctx.Done():
			return nil
		case fired := <-s.after(due.Sub(now)):
			s.sweepDayBefore(ctx, fired)
		}
	}
}

func (s *Scheduler) sweepDayBefore(ctx context.Context, at time.Time) {
	if _, err := s.Sweep(ctx, s.Yesterday(at)); err != nil && ctx.Err() == nil {
		logger.Error("Catch-up sweep failed", "error", err)
	}
}
