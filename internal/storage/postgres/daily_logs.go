package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/models"
)

// Days are stored as DATE and rendered back as YYYY-MM-DD text
const dailyLogColumns = "user_id, to_char(day, 'YYYY-MM-DD'), task_done_count, pomodoro_done, streak_incremented, created_at, updated_at"

func scanDailyLog(row rowScanner) (models.DailyLog, error) {
	var l models.DailyLog
	if err := row.Scan(&l.UserID, &l.Day, &l.TaskDoneCount, &l.PomodoroDone, &l.StreakIncremented, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return models.DailyLog{}, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}

func (s *Store) IncrementTaskCount(ctx context.Context, userID, day string) (models.DailyLog, error) {
	if err := s.ready(); err != nil {
		return models.DailyLog{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (user_id, day, task_done_count, pomodoro_done, streak_incremented)
		VALUES ($1, $2, 1, FALSE, FALSE)
		ON CONFLICT (user_id, day) DO UPDATE SET
			task_done_count = daily_logs.task_done_count + 1,
			updated_at = NOW()
		RETURNING `+dailyLogColumns,
		userID, day)

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
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (user_id, day, task_done_count, pomodoro_done, streak_incremented)
		VALUES ($1, $2, 0, TRUE, FALSE)
		ON CONFLICT (user_id, day) DO UPDATE SET
			pomodoro_done = TRUE,
			updated_at = NOW()
		RETURNING `+dailyLogColumns,
		userID, day)

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
	return getDailyLog(ctx, s.db, userID, day, false)
}

func getDailyLog(ctx context.Context, q querier, userID, day string, forUpdate bool) (models.DailyLog, error) {
	query := "SELECT " + dailyLogColumns + " FROM daily_logs WHERE user_id = $1 AND day = $2"
	if forUpdate {
		query += " FOR UPDATE"
	}

	log, err := scanDailyLog(q.QueryRowContext(ctx, query, userID, day))
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
		"SELECT "+dailyLogColumns+" FROM daily_logs WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day",
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
		"SELECT DISTINCT user_id FROM daily_logs WHERE day = $1 AND streak_incremented = FALSE ORDER BY user_id",
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
