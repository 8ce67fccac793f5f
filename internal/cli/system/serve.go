package system

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/server"
)

// ServeCmd runs the HTTP API and the daily catch-up sweep until interrupted
type ServeCmd struct {
	Host    string `help:"Listen host (overrides server.host)."`
	Port    int    `help:"Listen port (overrides server.port)."`
	NoSweep bool   `help:"Do not run the daily catch-up sweep in this process."`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	cfg := &server.Config{Host: ctx.Config.Server.Host, Port: ctx.Config.Server.Port}
	if cmd.Host != "" {
		cfg.Host = cmd.Host
	}
	if cmd.Port != 0 {
		cfg.Port = cmd.Port
	}

	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Deps{
		Aggregator: ctx.Aggregator(),
		Habits:     ctx.Habits(),
		Progress:   ctx.Progress(),
		Metrics:    ctx.Metrics,
		Location:   loc,
	}, cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepDone := make(chan error, 1)
	if cmd.NoSweep {
		close(sweepDone)
	} else {
		scheduler, err := ctx.Scheduler()
		if err != nil {
			return err
		}
		go func() {
			sweepDone <- scheduler.Run(runCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err = <-serveErr:
		// Listener failed; bring the sweep down with it
		stop()
	case <-runCtx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP server shutdown failed", "error", shutdownErr)
		if err == nil {
			err = shutdownErr
		}
	}

	if sweepErr := <-sweepDone; sweepErr != nil && !errors.Is(sweepErr, context.Canceled) {
		logger.Error("Sweep scheduler stopped with error", "error", sweepErr)
		if err == nil {
			err = sweepErr
		}
	}
	return err
}
