package habits

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/config"
	"github.com/julianstephens/daybuddy/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(t.Context()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	return &cli.Context{Config: &cfg, Store: store}
}

func TestHabitCommands(t *testing.T) {
	ctx := setupTestContext(t)

	if err := (&UserProvisionCmd{User: "u1"}).Run(ctx); err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if err := (&HabitAddCmd{User: "u1", Name: "Read"}).Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	habits, err := ctx.Store.GetHabitsForUser(t.Context(), "u1")
	if err != nil {
		t.Fatalf("GetHabits failed: %v", err)
	}
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(habits))
	}

	if err := (&HabitRenameCmd{User: "u1", ID: habits[0].ID, Name: "Read more"}).Run(ctx); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if err := (&HabitRenameCmd{User: "u2", ID: habits[0].ID, Name: "Stolen"}).Run(ctx); err == nil {
		t.Error("expected rename of another user's habit to fail")
	}
	if err := (&HabitListCmd{User: "u1"}).Run(ctx); err != nil {
		t.Errorf("list failed: %v", err)
	}
}

func TestHabitAddCmd_Invalid(t *testing.T) {
	ctx := setupTestContext(t)

	tests := []struct {
		name string
		user string
		hab  string
	}{
		{"blank name", "u1", "   "},
		{"blank user", "", "Read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := (&HabitAddCmd{User: tt.user, Name: tt.hab}).Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
}
