package streaks

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/streak"
)

// EvaluateCmd runs the streak engine for one user and day
type EvaluateCmd struct {
	User string `arg:"" help:"User ID."`
	Day  string `help:"Day to evaluate (YYYY-MM-DD). Defaults to today."`
}

func (c *EvaluateCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day(c.Day)
	if err != nil {
		return err
	}
	res, err := ctx.Engine().Evaluate(context.Background(), c.User, day)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res streak.Result) {
	switch {
	case !res.Found:
		fmt.Printf("No activity logged for %s on %s\n", res.UserID, res.Day)
	case res.AlreadyProcessed:
		fmt.Println(mutedStyle.Render(fmt.Sprintf("%s already counted toward the streak", res.Day)))
	case res.Qualified:
		fmt.Println(metStyle.Render(fmt.Sprintf("✓ %s qualifies: %d habit(s) extended", res.Day, res.HabitsIncremented)))
	default:
		fmt.Println(warnStyle.Render(fmt.Sprintf("%s does not qualify yet", res.Day)))
	}
	if res.Reset {
		fmt.Println(warnStyle.Render("Streak reset after a missed day"))
	}
	if res.Found {
		fmt.Printf("Current streak: %d\n", res.Streak)
	}
}
