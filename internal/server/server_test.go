package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daybuddy/internal/activity"
	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/habits"
	"github.com/julianstephens/daybuddy/internal/metrics"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/progress"
	"github.com/julianstephens/daybuddy/internal/storage/sqlite"
	"github.com/julianstephens/daybuddy/internal/streak"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	engine := streak.New(store, streak.DefaultConfig(), streak.WithMetrics(m))
	server, err := NewServer(Deps{
		Aggregator: activity.NewAggregator(store, engine, m, time.Second),
		Habits:     habits.NewDirectory(store),
		Progress:   progress.NewService(store, engine),
		Metrics:    m,
		Location:   time.UTC,
	}, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	return server
}

func do(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(constants.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestNewServerRequiresServices(t *testing.T) {
	if _, err := NewServer(Deps{}, nil); err == nil {
		t.Error("expected error without services")
	}
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/api/v1/habits", "/api/v1/dashboard", "/api/v1/progress"} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
	rec := do(t, s, http.MethodPost, "/api/v1/tasks/complete", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST tasks/complete status = %d, want 401", rec.Code)
	}
}

func TestProvisionUser(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/users", "u1", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var habits []models.Habit
	decode(t, rec, &habits)
	if len(habits) != 1 || habits[0].Name != constants.DefaultHabitName {
		t.Errorf("unexpected habits: %+v", habits)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/users", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("second provision status = %d, want 200", rec.Code)
	}
}

func TestQualifyingDayFlow(t *testing.T) {
	s := setupTestServer(t)
	do(t, s, http.MethodPost, "/api/v1/users", "u1", nil)

	rec := do(t, s, http.MethodGet, "/api/v1/dashboard", "u1", nil)
	var dash progress.DashboardView
	decode(t, rec, &dash)
	if !dash.ShowWarning || dash.Day != "2024-01-05" {
		t.Errorf("fresh dashboard should warn for 2024-01-05: %+v", dash)
	}

	do(t, s, http.MethodPost, "/api/v1/tasks/complete", "u1", nil)
	do(t, s, http.MethodPost, "/api/v1/tasks/complete", "u1", nil)
	rec = do(t, s, http.MethodPost, "/api/v1/focus-sessions/complete", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var out activity.Outcome
	decode(t, rec, &out)
	if out.Log.TaskDoneCount != 2 || !out.Log.PomodoroDone || out.Log.Day != "2024-01-05" {
		t.Errorf("unexpected log: %+v", out.Log)
	}
	if out.Evaluation == nil || out.Evaluation.Streak != 1 {
		t.Errorf("unexpected evaluation: %+v", out.Evaluation)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/dashboard", "u1", nil)
	decode(t, rec, &dash)
	if dash.ShowWarning {
		t.Error("qualifying day should clear the warning")
	}
	if len(dash.Habits) != 1 || dash.Habits[0].StreakCount != 1 {
		t.Errorf("unexpected habits: %+v", dash.Habits)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/progress", "u1", nil)
	var prog progress.ProgressView
	decode(t, rec, &prog)
	if len(prog.Calendar) != 30 || !prog.Calendar[29].Met {
		t.Errorf("unexpected calendar tail: %+v", prog.Calendar[len(prog.Calendar)-1])
	}
	if len(prog.History) != 1 || prog.History[0].Streak != 1 {
		t.Errorf("unexpected history: %+v", prog.History)
	}
}

func TestHabitEndpoints(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/habits", "u1", HabitRequest{Name: "Read"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var habit models.Habit
	decode(t, rec, &habit)

	rec = do(t, s, http.MethodPatch, "/api/v1/habits/"+habit.ID, "u1", HabitRequest{Name: "Read more"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &habit)
	if habit.Name != "Read more" {
		t.Errorf("name = %q", habit.Name)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/habits/"+habit.ID, "u2", HabitRequest{Name: "stolen"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user's rename status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/habits", "u1", HabitRequest{Name: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/habits", "u1", nil)
	var list []models.Habit
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 habit, got %d", len(list))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	do(t, s, http.MethodGet, "/health", "", nil)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "daybuddy_http_requests_total") {
		t.Error("expected http request counter in exposition")
	}
}
