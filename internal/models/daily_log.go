package models

import "time"

// DailyLog holds one user's activity counters for a single calendar day
type DailyLog struct {
	UserID            string    `json:"user_id"`
	Day               string    `json:"day"` // YYYY-MM-DD format
	TaskDoneCount     int       `json:"task_done_count"`
	PomodoroDone      bool      `json:"pomodoro_done"`
	StreakIncremented bool      `json:"streak_incremented"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CalendarDay is one cell of the progress calendar
type CalendarDay struct {
	Day string `json:"day"`
	Met bool   `json:"met"`
}
