// Package backup snapshots a SQLite daybuddy database and rolls it back.
// PostgreSQL deployments use the server's own tooling instead.
package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/logger"
)

const (
	// DefaultRetention is how many snapshots survive rotation
	DefaultRetention = 14
	DirName          = "backups"
	filePrefix       = constants.AppName + "-"
	fileSuffix       = ".db"
	stampFormat      = "20060102-150405"
)

// Snapshot describes one backup file
type Snapshot struct {
	Path    string
	TakenAt time.Time
	Size    int64
}

type Manager struct {
	dbPath    string
	dir       string
	retention int
	now       func() time.Time
}

// NewManager keeps snapshots in a backups directory next to dbPath
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		dir:       filepath.Join(filepath.Dir(dbPath), DirName),
		retention: DefaultRetention,
		now:       time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create writes a consistent copy of the database and prunes the oldest
// snapshots beyond the retention limit.
func (m *Manager) Create() (Snapshot, error) {
	snap, err := m.create()
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.prune(); err != nil {
		logger.Warn("Failed to prune old backups", "dir", m.dir, "error", err)
	}
	return snap, nil
}

func (m *Manager) create() (Snapshot, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return Snapshot{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	takenAt := m.now().UTC().Truncate(time.Second)
	path, err := m.freePath(takenAt)
	if err != nil {
		return Snapshot{}, err
	}

	if err := vacuumInto(m.dbPath, path); err != nil {
		return Snapshot{}, fmt.Errorf("failed to back up database: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	logger.Info("Database backup created", "path", path)
	return Snapshot{Path: path, TakenAt: takenAt, Size: info.Size()}, nil
}

// freePath picks an unused file name for takenAt, adding a sequence number
// when several snapshots land in the same second.
func (m *Manager) freePath(takenAt time.Time) (string, error) {
	base := filePrefix + takenAt.Format(stampFormat)
	for seq := 0; seq < 100; seq++ {
		name := base + fileSuffix
		if seq > 0 {
			name = fmt.Sprintf("%s-%d%s", base, seq, fileSuffix)
		}
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// vacuumInto copies src to dst through SQLite so WAL contents are included
func vacuumInto(src, dst string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := checkDatabase(db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	_, err = db.Exec("VACUUM INTO ?", dst)
	return err
}

func checkDatabase(db *sql.DB) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return err
	}
	// An initialized daybuddy schema always has the daily_logs table
	return db.QueryRow("SELECT COUNT(*) FROM daily_logs").Scan(&n)
}

// List returns snapshots newest first. Files that do not follow the
// snapshot naming scheme are ignored.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	snaps := []Snapshot{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		takenAt, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Path:    filepath.Join(m.dir, entry.Name()),
			TakenAt: takenAt,
			Size:    info.Size(),
		})
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].TakenAt.Equal(snaps[j].TakenAt) {
			return snaps[i].Path > snaps[j].Path
		}
		return snaps[i].TakenAt.After(snaps[j].TakenAt)
	})
	return snaps, nil
}

func parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if len(stamp) > len(stampFormat) {
		// Drop the "-N" sequence suffix
		stamp = stamp[:len(stampFormat)]
	}
	t, err := time.Parse(stampFormat, stamp)
	return t, err == nil
}

func (m *Manager) prune() error {
	snaps, err := m.List()
	if err != nil {
		return err
	}
	for i := m.retention; i < len(snaps); i++ {
		if err := os.Remove(snaps[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", snaps[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the database with the snapshot at path. The current
// database is snapshotted first and that snapshot is returned.
// The store must be closed while restoring.
func (m *Manager) Restore(path string) (*Snapshot, error) {
	if err := verify(path); err != nil {
		return nil, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous *Snapshot
	if _, err := os.Stat(m.dbPath); err == nil {
		snap, err := m.create()
		if err != nil {
			return nil, fmt.Errorf("failed to back up current database before restore: %w", err)
		}
		previous = &snap
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return nil, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to restore database: %w", err)
	}
	// Stale WAL files from the replaced database must not be replayed
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove stale SQLite file", "path", m.dbPath+suffix, "error", err)
		}
	}

	logger.Info("Database restored", "from", path)
	return previous, nil
}

func verify(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file does not exist: %s", path)
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return checkDatabase(db)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
