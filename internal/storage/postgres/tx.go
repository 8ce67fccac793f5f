package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
)

// WithUserTx runs fn in a transaction that holds an advisory lock on the
// user id and row locks on the user's habits, so evaluations for the same
// user run one at a time while other users proceed in parallel.
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

	// The advisory lock also covers users with no habit rows yet
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", userID); err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT id FROM habits WHERE user_id = $1 FOR UPDATE", userID); err != nil {
		return fmt.Errorf("failed to lock habits: %w", err)
	}

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
	return getDailyLog(ctx, u.tx, u.userID, day, true)
}

func (u *userTx) EarliestQualifiedDay(ctx context.Context) (string, bool, error) {
	var day sql.NullString
	err := u.tx.QueryRowContext(ctx,
		"SELECT to_char(MIN(last_qualified_day), 'YYYY-MM-DD') FROM habits WHERE user_id = $1 AND last_qualified_day IS NOT NULL",
		u.userID).Scan(&day)
	if err != nil {
		return "", false, err
	}
	return day.String, day.Valid, nil
}

func (u *userTx) ResetStreaks(ctx context.Context) (int64, error) {
	result, err := u.tx.ExecContext(ctx,
		"UPDATE habits SET streak_count = 0 WHERE user_id = $1 AND streak_count <> 0",
		u.userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (u *userTx) IncrementStreaks(ctx context.Context, day string) (int64, error) {
	result, err := u.tx.ExecContext(ctx, `
		UPDATE habits
		SET streak_count = streak_count + 1, last_qualified_day = $1
		WHERE user_id = $2 AND (last_qualified_day IS NULL OR last_qualified_day < $1)`,
		day, u.userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (u *userTx) MaxStreak(ctx context.Context) (int, error) {
	var maxStreak sql.NullInt64
	err := u.tx.QueryRowContext(ctx,
		"SELECT MAX(streak_count) FROM habits WHERE user_id = $1",
		u.userID).Scan(&maxStreak)
	if err != nil {
		return 0, err
	}
	return int(maxStreak.Int64), nil
}

func (u *userTx) AppendStreakHistory(ctx context.Context, entry models.StreakHistoryEntry) error {
	_, err := u.tx.ExecContext(ctx,
		"INSERT INTO streak_history (user_id, day, streak, recorded_at) VALUES ($1, $2, $3, $4)",
		u.userID, entry.Day, entry.Streak, entry.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append streak history: %w", err)
	}
	return nil
}

func (u *userTx) MarkStreakIncremented(ctx context.Context, day string) error {
	_, err := u.tx.ExecContext(ctx,
		"UPDATE daily_logs SET streak_incremented = TRUE WHERE user_id = $1 AND day = $2",
		u.userID, day)
	return err
}
