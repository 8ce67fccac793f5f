package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/validation"
)

const userIDKey = "user_id"

// requireUser trusts the identity supplied upstream in the X-User-ID header
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(constants.UserIDHeader)
		if err := validation.UserID(userID); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid "+constants.UserIDHeader+" header")
		}
		c.Set(userIDKey, userID)
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// HabitRequest is the request body for creating or renaming a habit.
type HabitRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleProvision(c echo.Context) error {
	habits, created, err := s.habits.Provision(c.Request().Context(), userID(c))
	if err != nil {
		return fail(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, habits)
}

func (s *Server) handleTaskComplete(c echo.Context) error {
	out, err := s.aggregator.RecordTaskCompletion(c.Request().Context(), userID(c), s.today())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleFocusSessionComplete(c echo.Context) error {
	out, err := s.aggregator.RecordFocusSessionCompletion(c.Request().Context(), userID(c), s.today())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleListHabits(c echo.Context) error {
	habits, err := s.habits.List(c.Request().Context(), userID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, habits)
}

func (s *Server) handleAddHabit(c echo.Context) error {
	var req HabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	habit, err := s.habits.Add(c.Request().Context(), userID(c), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, habit)
}

func (s *Server) handleRenameHabit(c echo.Context) error {
	var req HabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	habit, err := s.habits.Rename(c.Request().Context(), userID(c), c.Param("id"), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, habit)
}

func (s *Server) handleDashboard(c echo.Context) error {
	view, err := s.progress.Dashboard(c.Request().Context(), userID(c), s.today())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleProgress(c echo.Context) error {
	view, err := s.progress.Progress(c.Request().Context(), userID(c), s.today())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, view)
}
