package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/models"
)

const dailyLogColumns = "user_id, day, task_done_count, pomodoro_done, streak_incremented, created_at, updated_at"

func scanDailyLog(row rowScanner) (models.DailyLog, error) {
	var l models.DailyLog
	var createdAt, updatedAt string

	if err := row.Scan(&l.UserID, &l.Day, &l.TaskDoneCount, &l.PomodoroDone, &l.StreakIncremented, &createdAt, &updatedAt); err != nil {
		return models.DailyLog{}, err
	}

	var err error
	l.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	l.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return l, nil
}

func (s *Store) IncrementTaskCount(ctx context.Context, userID, day string) (models.DailyLog, error) {
	if err := s.ready(); err != nil {
		return models.DailyLog{}, err
	}
	now := formatTimestamp(time.Now())
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (user_id, day, task_done_count, pomodoro_done, streak_incremented, created_at, updated_at)
		VALUES (?, ?, 1, 0, 0, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			task_done_count = daily_logs.task_done_count + 1,
			updated_at = excluded.updated_at
		RETURNING `+dailyLogColumns,
		userID, day, now, now)

	log, err := scanDailyLog(row)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("failed to increment task count: %w", err)
	}
	return log, nil
}

func (s *Store) MarkPomodoroDone(ctx context.Context, userID, day string) (models.DailyLog, error) {
	if err := s.ready(); err != nil {
		return models.DailyLog{}, err
	}
	now := formatTimestamp(time.Now())
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (user_id, day, task_done_count, pomodoro_done, streak_incremented, created_at, updated_at)
		VALUES (?, ?, 0, 1, 0, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			pomodoro_done = 1,
			updated_at = excluded.updated_at
		RETURNING `+dailyLogColumns,
		userID, day, now, now)

	log, err := scanDailyLog(row)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("failed to mark pomodoro done: %w", err)
	}
	return log, nil
}

func (s *Store) GetDailyLog(ctx context.Context, userID, day string) (models.DailyLog, error) {
	if err := s.ready(); err != nil {
		return models.DailyLog{}, err
	}
	return getDailyLog(ctx, s.db, userID, day)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDailyLog(ctx context.Context, q querier, userID, day string) (models.DailyLog, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+dailyLogColumns+" FROM daily_logs WHERE user_id = ? AND day = ?",
		userID, day)

	log, err := scanDailyLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DailyLog{}, fmt.Errorf("daily log for %s on %s: %w", userID, day, apperrors.ErrNotFound)
		}
		return models.DailyLog{}, err
	}
	return log, nil
}

func (s *Store) GetDailyLogs(ctx context.Context, userID, startDay, endDay string) ([]models.DailyLog, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+dailyLogColumns+" FROM daily_logs WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day",
		userID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) GetPendingUsers(ctx context.Context, day string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM daily_logs WHERE day = ? AND streak_incremented = 0 ORDER BY user_id",
		day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
