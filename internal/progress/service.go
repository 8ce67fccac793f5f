package progress

import (
	"context"
	"errors"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
	"github.com/julianstephens/daybuddy/internal/streak"
	"github.com/julianstephens/daybuddy/internal/utils"
)

// Engine is the streak engine surface the read model needs
type Engine interface {
	Qualifies(log models.DailyLog) bool
	Evaluate(ctx context.Context, userID, day string) (streak.Result, error)
}

// DashboardView is what a user sees on opening the app
type DashboardView struct {
	Day    string         `json:"day"`
	Habits []models.Habit `json:"habits"`
	// Today is nil when nothing was recorded today
	Today *models.DailyLog `json:"today,omitempty"`
	// ShowWarning is true while today's activity does not yet qualify
	ShowWarning bool `json:"show_warning"`
}

// ProgressView is the calendar and streak history for a trailing window
type ProgressView struct {
	Start    string                      `json:"start"`
	End      string                      `json:"end"`
	Calendar []models.CalendarDay        `json:"calendar"`
	History  []models.StreakHistoryEntry `json:"history"`
}

type Service struct {
	store  storage.Provider
	engine Engine
	window int
}

func NewService(store storage.Provider, engine Engine) *Service {
	return &Service{
		store:  store,
		engine: engine,
		window: constants.ProgressWindowDays,
	}
}

// Dashboard evaluates today before reading so the habit list reflects any
// reset owed for a missed day.
func (s *Service) Dashboard(ctx context.Context, userID, today string) (DashboardView, error) {
	view := DashboardView{Day: today, ShowWarning: true}

	if _, err := s.engine.Evaluate(ctx, userID, today); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return view, err
		}
		logger.Warn("Dashboard evaluation failed", "user", userID, "day", today, "error", err)
	}

	habits, err := s.store.GetHabitsForUser(ctx, userID)
	if err != nil {
		return view, apperrors.Storage("list habits", err)
	}
	view.Habits = habits
	if view.Habits == nil {
		view.Habits = []models.Habit{}
	}

	log, err := s.store.GetDailyLog(ctx, userID, today)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		return view, apperrors.Storage("load daily log", err)
	default:
		view.Today = &log
		view.ShowWarning = !s.engine.Qualifies(log)
	}
	return view, nil
}

func (s *Service) windowStart(today string) (string, error) {
	start, err := utils.AddDays(today, -(s.window - 1))
	if err != nil {
		return "", apperrors.Invalid("%v", err)
	}
	return start, nil
}

// Calendar returns one cell per day for the window ending at today, oldest first
func (s *Service) Calendar(ctx context.Context, userID, today string) ([]models.CalendarDay, error) {
	start, err := s.windowStart(today)
	if err != nil {
		return nil, err
	}

	logs, err := s.store.GetDailyLogs(ctx, userID, start, today)
	if err != nil {
		return nil, apperrors.Storage("list daily logs", err)
	}
	met := make(map[string]bool, len(logs))
	for _, l := range logs {
		met[l.Day] = s.engine.Qualifies(l)
	}

	days := make([]models.CalendarDay, 0, s.window)
	for i := 0; i < s.window; i++ {
		day, err := utils.AddDays(start, i)
		if err != nil {
			return nil, err
		}
		days = append(days, models.CalendarDay{Day: day, Met: met[day]})
	}
	return days, nil
}

// History returns streak history entries inside the window ending at today
func (s *Service) History(ctx context.Context, userID, today string) ([]models.StreakHistoryEntry, error) {
	start, err := s.windowStart(today)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.GetStreakHistory(ctx, userID, start, today)
	if err != nil {
		return nil, apperrors.Storage("list streak history", err)
	}
	if entries == nil {
		entries = []models.StreakHistoryEntry{}
	}
	return entries, nil
}

// Progress combines Calendar and History
func (s *Service) Progress(ctx context.Context, userID, today string) (ProgressView, error) {
	start, err := s.windowStart(today)
	if err != nil {
		return ProgressView{}, err
	}
	calendar, err := s.Calendar(ctx, userID, today)
	if err != nil {
		return ProgressView{}, err
	}
	history, err := s.History(ctx, userID, today)
	if err != nil {
		return ProgressView{}, err
	}
	return ProgressView{Start: start, End: today, Calendar: calendar, History: history}, nil
}
