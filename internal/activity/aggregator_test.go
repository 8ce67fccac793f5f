package activity

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage/sqlite"
	"github.com/julianstephens/daybuddy/internal/streak"
)

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setupAggregator(t *testing.T) (*Aggregator, *sqlite.Store) {
	t.Helper()
	store := setupTestStore(t)
	engine := streak.New(store, streak.DefaultConfig())
	return NewAggregator(store, engine, nil, time.Second), store
}

func TestRecordTaskCompletion(t *testing.T) {
	ctx := context.Background()
	agg, _ := setupAggregator(t)

	out, err := agg.RecordTaskCompletion(ctx, "u1", "2024-01-05")
	if err != nil {
		t.Fatalf("RecordTaskCompletion failed: %v", err)
	}
	if out.Log.TaskDoneCount != 1 {
		t.Errorf("expected count 1, got %d", out.Log.TaskDoneCount)
	}
	if out.Evaluation == nil || !out.Evaluation.Found || out.Evaluation.Qualified {
		t.Errorf("unexpected evaluation: %+v", out.Evaluation)
	}
}

func TestQualifyingEventAdvancesStreak(t *testing.T) {
	ctx := context.Background()
	agg, store := setupAggregator(t)

	habit := models.Habit{ID: uuid.NewString(), UserID: "u1", Name: "Daily Focus", CreatedAt: time.Now()}
	if err := store.AddHabit(ctx, habit); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	steps := []func() (Outcome, error){
		func() (Outcome, error) { return agg.RecordTaskCompletion(ctx, "u1", "2024-01-05") },
		func() (Outcome, error) { return agg.RecordFocusSessionCompletion(ctx, "u1", "2024-01-05") },
		func() (Outcome, error) { return agg.RecordTaskCompletion(ctx, "u1", "2024-01-05") },
		func() (Outcome, error) { return agg.RecordTaskCompletion(ctx, "u1", "2024-01-05") },
	}

	var last Outcome
	for i, step := range steps {
		out, err := step()
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		last = out
		if i == 2 && (out.Evaluation == nil || out.Evaluation.HabitsIncremented != 1) {
			t.Errorf("third event should qualify the day, got %+v", out.Evaluation)
		}
	}

	if last.Log.TaskDoneCount != 3 || !last.Log.PomodoroDone || !last.Log.StreakIncremented {
		t.Errorf("unexpected final log: %+v", last.Log)
	}
	if last.Evaluation == nil || !last.Evaluation.AlreadyProcessed || last.Evaluation.Streak != 1 {
		t.Errorf("unexpected final evaluation: %+v", last.Evaluation)
	}
}

func TestConcurrentRecordTaskCompletion(t *testing.T) {
	ctx := context.Background()
	agg, store := setupAggregator(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := agg.RecordTaskCompletion(ctx, "u1", "2024-01-05"); err != nil {
				t.Errorf("RecordTaskCompletion failed: %v", err)
			}
		}()
	}
	wg.Wait()

	log, err := store.GetDailyLog(ctx, "u1", "2024-01-05")
	if err != nil {
		t.Fatalf("GetDailyLog failed: %v", err)
	}
	if log.TaskDoneCount != n {
		t.Errorf("expected task count %d, got %d", n, log.TaskDoneCount)
	}
}

func TestRecordValidation(t *testing.T) {
	agg, store := setupAggregator(t)

	tests := []struct {
		name   string
		userID string
		day    string
	}{
		{name: "empty user", userID: "", day: "2024-01-05"},
		{name: "blank user", userID: "   ", day: "2024-01-05"},
		{name: "long user", userID: strings.Repeat("x", 256), day: "2024-01-05"},
		{name: "bad day", userID: "u1", day: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.RecordTaskCompletion(context.Background(), tt.userID, tt.day)
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	users, err := store.GetPendingUsers(context.Background(), "2024-01-05")
	if err != nil {
		t.Fatalf("GetPendingUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("rejected events must not touch storage, found %v", users)
	}
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(ctx context.Context, userID, day string) (streak.Result, error) {
	return streak.Result{}, apperrors.Storage("evaluate", errors.New("database is locked"))
}

func TestEvaluationFailureDoesNotFailRecord(t *testing.T) {
	store := setupTestStore(t)
	agg := NewAggregator(store, failingEvaluator{}, nil, time.Second)

	out, err := agg.RecordFocusSessionCompletion(context.Background(), "u1", "2024-01-05")
	if err != nil {
		t.Fatalf("RecordFocusSessionCompletion failed: %v", err)
	}
	if !out.Log.PomodoroDone {
		t.Error("focus session should be stored")
	}
	if out.Evaluation != nil {
		t.Errorf("expected no evaluation, got %+v", out.Evaluation)
	}
}
