package models

import "time"

// Habit is a per-user practice whose streak advances on qualifying days
type Habit struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	StreakCount      int       `json:"streak_count"`
	LastQualifiedDay *string   `json:"last_qualified_day,omitempty"` // YYYY-MM-DD format
	CreatedAt        time.Time `json:"created_at"`
}

// StreakHistoryEntry records the streak value on a day it changed.
// Entries are write-once.
type StreakHistoryEntry struct {
	UserID     string    `json:"user_id"`
	Day        string    `json:"day"`
	Streak     int       `json:"streak"`
	RecordedAt time.Time `json:"recorded_at"`
}
