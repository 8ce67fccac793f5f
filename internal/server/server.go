package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/daybuddy/internal/activity"
	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/habits"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/metrics"
	"github.com/julianstephens/daybuddy/internal/progress"
	"github.com/julianstephens/daybuddy/internal/utils"
)

// Server exposes the action handlers and read views over HTTP
type Server struct {
	echo       *echo.Echo
	aggregator *activity.Aggregator
	habits     *habits.Directory
	progress   *progress.Service
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
	config     *Config
}

type Config struct {
	Host string
	Port int
}

// Deps are the services the handlers call
type Deps struct {
	Aggregator *activity.Aggregator
	Habits     *habits.Directory
	Progress   *progress.Service
	Metrics    *metrics.Metrics
	// Location is the timezone "today" is computed in; defaults to time.Local
	Location *time.Location
}

func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if deps.Aggregator == nil || deps.Habits == nil || deps.Progress == nil {
		return nil, errors.New("aggregator, habits and progress are required")
	}
	if cfg == nil {
		cfg = &Config{
			Host: constants.DefaultServerHost,
			Port: constants.DefaultServerPort,
		}
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		aggregator: deps.Aggregator,
		habits:     deps.Habits,
		progress:   deps.Progress,
		metrics:    deps.Metrics,
		loc:        loc,
		now:        time.Now,
		config:     cfg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.observe)

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", requireUser)
	v1.POST("/users", s.handleProvision)
	v1.POST("/tasks/complete", s.handleTaskComplete)
	v1.POST("/focus-sessions/complete", s.handleFocusSessionComplete)
	v1.GET("/habits", s.handleListHabits)
	v1.POST("/habits", s.handleAddHabit)
	v1.PATCH("/habits/:id", s.handleRenameHabit)
	v1.GET("/dashboard", s.handleDashboard)
	v1.GET("/progress", s.handleProgress)
}

// observe logs every request and records its route-level metrics
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Write the response now so the logged status is the real one
			c.Error(err)
		}
		duration := time.Since(start)

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request().Method, route, status, duration)

		logger.Info("http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", status,
			"duration", duration,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

// Start blocks serving HTTP until Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.Info("Starting http server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or driven by httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) today() string {
	return utils.Today(s.now(), s.loc)
}

// fail maps domain errors onto HTTP status codes
func fail(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded) || apperrors.IsTransient(err):
		logger.Error("Request failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		logger.Error("Request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
