package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/models"
)

const habitColumns = "id, user_id, name, streak_count, to_char(last_qualified_day, 'YYYY-MM-DD'), created_at"

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var lastQualified sql.NullString

	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.StreakCount, &lastQualified, &h.CreatedAt); err != nil {
		return models.Habit{}, err
	}
	if lastQualified.Valid {
		day := lastQualified.String
		h.LastQualifiedDay = &day
	}
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func insertHabit(ctx context.Context, e execer, habit models.Habit) error {
	var lastQualified sql.NullString
	if habit.LastQualifiedDay != nil {
		lastQualified = sql.NullString{String: *habit.LastQualifiedDay, Valid: true}
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, name, streak_count, last_qualified_day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		habit.ID, habit.UserID, habit.Name, habit.StreakCount, lastQualified, habit.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	if err := s.ready(); err != nil {
		return err
	}
	return insertHabit(ctx, s.db, habit)
}

func (s *Store) GetHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE id = $1 AND user_id = $2",
		id, userID)

	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, fmt.Errorf("habit %s: %w", id, apperrors.ErrNotFound)
		}
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetHabitsForUser(ctx context.Context, userID string) ([]models.Habit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) RenameHabit(ctx context.Context, userID, id, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE habits SET name = $1 WHERE id = $2 AND user_id = $3",
		name, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("habit %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// ProvisionUser serializes concurrent provisioning of the same user with a
// transaction-scoped advisory lock on the user id.
func (s *Store) ProvisionUser(ctx context.Context, habit models.Habit) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", habit.UserID); err != nil {
		return false, fmt.Errorf("failed to lock user: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM habits WHERE user_id = $1", habit.UserID).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := insertHabit(ctx, tx, habit); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (s *Store) GetStreakHistory(ctx context.Context, userID, startDay, endDay string) ([]models.StreakHistoryEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, to_char(day, 'YYYY-MM-DD'), streak, recorded_at FROM streak_history
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day`,
		userID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.StreakHistoryEntry
	for rows.Next() {
		var e models.StreakHistoryEntry
		if err := rows.Scan(&e.UserID, &e.Day, &e.Streak, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.RecordedAt = e.RecordedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
