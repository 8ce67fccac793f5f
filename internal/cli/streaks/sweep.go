package streaks

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/validation"
)

// SweepCmd evaluates every log left unprocessed for a day
type SweepCmd struct {
	Day string `help:"Day to sweep (YYYY-MM-DD). Defaults to yesterday in the sweep timezone."`
}

func (c *SweepCmd) Run(ctx *cli.Context) error {
	scheduler, err := ctx.Scheduler()
	if err != nil {
		return err
	}

	day := c.Day
	if day == "" {
		day = scheduler.Yesterday(ctx.Clock())
	} else if err := validation.Day(day); err != nil {
		return err
	}

	report, err := scheduler.Sweep(context.Background(), day)
	if err != nil {
		return err
	}

	fmt.Printf("Swept %s: %d candidate(s), %d evaluated, %d failed\n",
		report.Day, report.Candidates, report.Evaluated, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d evaluation(s) failed", report.Failed)
	}
	return nil
}
