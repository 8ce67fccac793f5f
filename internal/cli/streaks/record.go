package streaks

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/activity"
	"github.com/julianstephens/daybuddy/internal/cli"
)

type RecordCmd struct {
	Task  RecordTaskCmd  `cmd:"" help:"Record a completed task."`
	Focus RecordFocusCmd `cmd:"" help:"Record a completed focus session."`
}

type RecordTaskCmd struct {
	User string `arg:"" help:"User ID."`
	Day  string `help:"Day to record on (YYYY-MM-DD). Defaults to today."`
}

func (c *RecordTaskCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day(c.Day)
	if err != nil {
		return err
	}
	out, err := ctx.Aggregator().RecordTaskCompletion(context.Background(), c.User, day)
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

type RecordFocusCmd struct {
	User string `arg:"" help:"User ID."`
	Day  string `help:"Day to record on (YYYY-MM-DD). Defaults to today."`
}

func (c *RecordFocusCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day(c.Day)
	if err != nil {
		return err
	}
	out, err := ctx.Aggregator().RecordFocusSessionCompletion(context.Background(), c.User, day)
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func printOutcome(out activity.Outcome) {
	focus := "no"
	if out.Log.PomodoroDone {
		focus = "yes"
	}
	fmt.Printf("%s: %d task(s) done, focus session: %s\n", out.Log.Day, out.Log.TaskDoneCount, focus)

	if out.Evaluation == nil {
		fmt.Println(warnStyle.Render("Streak evaluation deferred to the next sweep"))
		return
	}
	printResult(*out.Evaluation)
}
