package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/keyring"
	"github.com/julianstephens/daybuddy/internal/storage"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	report := func(name string, err error) {
		if err != nil {
			fmt.Printf("❌ %s: FAIL\n", name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			return
		}
		fmt.Printf("✓ %s: OK\n", name)
	}

	dbErr := checkDBReachable(ctx)
	report("Database reachable and schema current", dbErr)

	if dbErr == nil {
		report("Pending evaluations", checkPendingYesterday(ctx))
	} else {
		fmt.Printf("⊘ Pending evaluations: SKIPPED (database not reachable)\n")
	}

	report("Sweep schedule", checkSweepSchedule(ctx))
	report("Clock", checkClock())

	if storage.IsPostgresDSN(ctx.Config.Storage.DSN) || ctx.Config.Storage.DSN == keyring.KeyringDSN {
		if keyring.IsAvailable() {
			fmt.Printf("✓ OS keyring: OK\n")
		} else {
			fmt.Printf("⚠ OS keyring: WARNING\n")
			fmt.Printf("   keyring unavailable; use %s or .pgpass\n", "DAYBUDDY_DB_CONNECTION")
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

// checkDBReachable loads the store, which also rejects a schema that is
// behind or ahead of this binary.
func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(cmdContext()); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

// checkPendingYesterday warns when yesterday still has unprocessed logs, a
// sign the catch-up sweep has not run.
func checkPendingYesterday(ctx *cli.Context) error {
	today, err := ctx.Day("")
	if err != nil {
		return err
	}
	s, err := ctx.Scheduler()
	if err != nil {
		return err
	}
	loc := s.Location()
	yesterday := s.Yesterday(ctx.Clock().In(loc))

	users, err := ctx.Store.GetPendingUsers(cmdContext(), yesterday)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		fmt.Printf("   Note: %d user(s) have unprocessed logs for %s (today is %s); run 'daybuddy sweep'\n",
			len(users), yesterday, today)
	}
	return nil
}

func checkSweepSchedule(ctx *cli.Context) error {
	s, err := ctx.Scheduler()
	if err != nil {
		return err
	}
	fmt.Printf("   Next sweep: %s\n", s.NextDue(ctx.Clock()).Format(time.RFC3339))
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
