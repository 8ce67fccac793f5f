package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
)

var (
	_ storage.Provider = (*Store)(nil)
	_ storage.Migrator = (*Store)(nil)
)

// WithUserTx runs fn inside an immediate transaction: SQLite takes the
// database write lock at BEGIN, which covers the user's rows.
func (s *Store) WithUserTx(ctx context.Context, userID string, fn func(tx storage.UserTx) error) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&userTx{tx: tx, userID: userID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type userTx struct {
	tx     *sql.Tx
	userID string
}

func (u *userTx) GetDailyLog(ctx context.Context, day string) (models.DailyLog, error) {
	return getDailyLog(ctx, u.tx, u.userID, day)
}

func (u *userTx) EarliestQualifiedDay(ctx context.Context) (string, bool, error) {
	var day sql.NullString
	err := u.tx.QueryRowContext(ctx,
		"SELECT MIN(last_qualified_day) FROM habits WHERE user_id = ? AND last_qualified_day IS NOT NULL",
		u.userID).Scan(&day)
	if err != nil {
		return "", false, err
	}
	return day.String, day.Valid, nil
}

func (u *userTx) ResetStreaks(ctx context.Context) (int64, error) {
	result, err := u.tx.ExecContext(ctx,
		"UPDATE habits SET streak_count = 0 WHERE user_id = ? AND streak_count <> 0",
		u.userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (u *userTx) IncrementStreaks(ctx context.Context, day string) (int64, error) {
	result, err := u.tx.ExecContext(ctx, `
		UPDATE habits
		SET streak_count = streak_count + 1, last_qualified_day = ?
		WHERE user_id = ? AND (last_qualified_day IS NULL OR last_qualified_day < ?)`,
		day, u.userID, day)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (u *userTx) MaxStreak(ctx context.Context) (int, error) {
	var maxStreak sql.NullInt64
	err := u.tx.QueryRowContext(ctx,
		"SELECT MAX(streak_count) FROM habits WHERE user_id = ?",
		u.userID).Scan(&maxStreak)
	if err != nil {
		return 0, err
	}
	return int(maxStreak.Int64), nil
}

func (u *userTx) AppendStreakHistory(ctx context.Context, entry models.StreakHistoryEntry) error {
	_, err := u.tx.ExecContext(ctx,
		"INSERT INTO streak_history (user_id, day, streak, recorded_at) VALUES (?, ?, ?, ?)",
		u.userID, entry.Day, entry.Streak, formatTimestamp(entry.RecordedAt))
	if err != nil {
		return fmt.Errorf("failed to append streak history: %w", err)
	}
	return nil
}

func (u *userTx) MarkStreakIncremented(ctx context.Context, day string) error {
	_, err := u.tx.ExecContext(ctx,
		"UPDATE daily_logs SET streak_incremented = 1 WHERE user_id = ? AND day = ?",
		u.userID, day)
	return err
}
