package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/daybuddy/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (string, *sqlite.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "daybuddy.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(t.Context()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if _, err := store.IncrementTaskCount(t.Context(), "u1", "2024-01-05"); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}
	return dbPath, store
}

func TestCreateAndList(t *testing.T) {
	dbPath, store := setupTestDB(t)
	defer store.Close()

	m := NewManager(dbPath)
	tick := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return tick }

	first, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := m.Create()
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if first.Path == second.Path {
		t.Fatal("snapshots in the same second must not collide")
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Path != second.Path {
		t.Errorf("expected newest snapshot first, got %s", snaps[0].Path)
	}
	if !snaps[0].TakenAt.Equal(tick) {
		t.Errorf("TakenAt = %v, want %v", snaps[0].TakenAt, tick)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath, store := setupTestDB(t)
	defer store.Close()

	m := NewManager(dbPath)
	if err := os.MkdirAll(m.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "daybuddy-garbage.db", "other-20240105-100000.db"} {
		if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected foreign files to be ignored, got %d snapshots", len(snaps))
	}
}

func TestCreatePrunesBeyondRetention(t *testing.T) {
	dbPath, store := setupTestDB(t)
	defer store.Close()

	m := NewManager(dbPath)
	m.retention = 3
	start := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		m.now = func() time.Time { return at }
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots after pruning, got %d", len(snaps))
	}
	if want := start.Add(2 * time.Minute); !snaps[2].TakenAt.Equal(want) {
		t.Errorf("oldest kept = %v, want %v", snaps[2].TakenAt, want)
	}
}

func TestRestore(t *testing.T) {
	dbPath, store := setupTestDB(t)

	m := NewManager(dbPath)
	m.now = func() time.Time { return time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC) }
	snap, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.IncrementTaskCount(t.Context(), "u1", "2024-01-05"); err != nil {
		t.Fatalf("IncrementTaskCount failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m.now = func() time.Time { return time.Date(2024, 1, 5, 11, 0, 0, 0, time.UTC) }
	previous, err := m.Restore(snap.Path)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if previous == nil {
		t.Fatal("expected the replaced database to be snapshotted")
	}

	reopened := sqlite.NewStore(dbPath)
	defer reopened.Close()
	if err := reopened.Load(t.Context()); err != nil {
		t.Fatalf("Load after restore failed: %v", err)
	}
	log, err := reopened.GetDailyLog(t.Context(), "u1", "2024-01-05")
	if err != nil {
		t.Fatalf("GetDailyLog failed: %v", err)
	}
	if log.TaskDoneCount != 1 {
		t.Errorf("TaskDoneCount = %d, want 1 from the snapshot", log.TaskDoneCount)
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	dbPath, store := setupTestDB(t)
	defer store.Close()

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(dbPath).Restore(bogus); err == nil {
		t.Error("expected error restoring an invalid file")
	}
	if _, err := NewManager(dbPath).Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error restoring a missing file")
	}
}
