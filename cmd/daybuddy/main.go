package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/cli/habits"
	"github.com/julianstephens/daybuddy/internal/cli/streaks"
	"github.com/julianstephens/daybuddy/internal/cli/system"
	"github.com/julianstephens/daybuddy/internal/config"
	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/metrics"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path. Defaults to ~/.config/daybuddy/config.yaml when present." type:"path"`
	DSN     string `name:"dsn" help:"SQLite path, PostgreSQL connection string, or 'keyring'. For PostgreSQL, credentials must NOT be embedded in the connection string. Use the OS keyring, DAYBUDDY_DB_CONNECTION, or .pgpass instead."`
	Debug   bool   `help:"Enable debug logging."`
	Verbose bool   `short:"v" help:"Mirror log output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize daybuddy storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string held in the OS keyring."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the HTTP API and the daily catch-up sweep."`
	Backup  system.BackupCmd  `cmd:"" help:"Manage SQLite database backups."`

	Record    streaks.RecordCmd    `cmd:"" help:"Record activity for a user."`
	Evaluate  streaks.EvaluateCmd  `cmd:"" help:"Evaluate a user's streak for a day."`
	Sweep     streaks.SweepCmd     `cmd:"" help:"Evaluate every unprocessed log for a day."`
	Dashboard streaks.DashboardCmd `cmd:"" help:"Show a user's habits and today's progress."`
	Progress  streaks.ProgressCmd  `cmd:"" help:"Show a user's 30-day calendar and streak history."`

	User  habits.UserCmd  `cmd:"" help:"Manage users."`
	Habit habits.HabitCmd `cmd:"" help:"Manage habits."`
}

// Commands that open storage themselves, keyed by top-level command
var skipLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"backup":  true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit streak tracker driven by daily task and focus-session activity"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
	if CLI.DSN != "" {
		cfg.Storage.DSN = CLI.DSN
	}
	cfg.Log.Debug = cfg.Log.Debug || CLI.Debug
	// Long-running commands report at info level
	cfg.Log.Verbose = cfg.Log.Verbose || CLI.Verbose || topLevel(ctx) == "serve"

	if err := logger.Init(logger.Config{
		Debug:   cfg.Log.Debug,
		Verbose: cfg.Log.Verbose,
		Dir:     cfg.Log.Dir,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	if topLevel(ctx) == "keyring" {
		apperrors.Fatal(ctx.Run(appCtx))
		return
	}

	store, err := cli.OpenStore(cfg.Storage.DSN)
	apperrors.Fatal(err)
	appCtx.Store = store

	err = run(ctx, appCtx)
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close storage", "error", closeErr)
	}
	apperrors.Fatal(err)
}

func run(ctx *kong.Context, appCtx *cli.Context) error {
	if !skipLoad[topLevel(ctx)] {
		if err := appCtx.Store.Load(context.Background()); err != nil {
			return err
		}
	}
	return ctx.Run(appCtx)
}

// topLevel names the command directly under the application node
func topLevel(ctx *kong.Context) string {
	node := ctx.Selected()
	if node == nil {
		return ""
	}
	for node.Parent != nil && node.Parent.Parent != nil {
		node = node.Parent
	}
	return node.Name
}
