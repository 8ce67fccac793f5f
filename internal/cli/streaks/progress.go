package streaks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/constants"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/progress"
)

// DashboardCmd shows habits, today's counters and the at-risk warning
type DashboardCmd struct {
	User string `arg:"" help:"User ID."`
}

func (c *DashboardCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day("")
	if err != nil {
		return err
	}
	view, err := ctx.Progress().Dashboard(context.Background(), c.User, day)
	if err != nil {
		return err
	}
	fmt.Print(RenderDashboard(view))
	return nil
}

// ProgressCmd shows the trailing calendar and streak history
type ProgressCmd struct {
	User string `arg:"" help:"User ID."`
	Day  string `help:"Last day of the window (YYYY-MM-DD). Defaults to today."`
}

func (c *ProgressCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day(c.Day)
	if err != nil {
		return err
	}
	view, err := ctx.Progress().Progress(context.Background(), c.User, day)
	if err != nil {
		return err
	}
	fmt.Print(RenderProgress(view))
	return nil
}

func RenderDashboard(view progress.DashboardView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Today · "+view.Day) + "\n\n")

	if len(view.Habits) == 0 {
		b.WriteString(mutedStyle.Render("No habits yet") + "\n")
	}
	for _, h := range view.Habits {
		fmt.Fprintf(&b, "  %-30s %s\n", h.Name, metStyle.Render(fmt.Sprintf("%d day(s)", h.StreakCount)))
	}

	b.WriteString("\n")
	var log models.DailyLog
	if view.Today != nil {
		log = *view.Today
	}
	focus := "pending"
	if log.PomodoroDone {
		focus = "done"
	}
	fmt.Fprintf(&b, "Tasks done: %d   Focus session: %s\n", log.TaskDoneCount, focus)

	if view.ShowWarning {
		b.WriteString(warnStyle.Render("⚠ Today does not count toward your streak yet") + "\n")
	} else {
		b.WriteString(metStyle.Render("✓ Today counts toward your streak") + "\n")
	}
	return b.String()
}

// RenderProgress draws the calendar as rows of one week, oldest first
func RenderProgress(view progress.ProgressView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Progress %s → %s", view.Start, view.End)) + "\n\n")

	var row []string
	met := 0
	for i, cell := range view.Calendar {
		if cell.Met {
			met++
			row = append(row, metStyle.Render("■"))
		} else {
			row = append(row, missedStyle.Render("□"))
		}
		if len(row) == 7 || i == len(view.Calendar)-1 {
			b.WriteString("  " + strings.Join(row, " ") + "\n")
			row = row[:0]
		}
	}
	fmt.Fprintf(&b, "\n%d of %d days met\n", met, len(view.Calendar))

	if len(view.History) == 0 {
		return b.String()
	}
	b.WriteString("\n" + titleStyle.Render("Streak history") + "\n")
	for _, e := range view.History {
		day := e.Day
		if t, err := time.Parse(constants.DateFormat, e.Day); err == nil {
			day = t.Format("Mon Jan 2")
		}
		fmt.Fprintf(&b, "  %-12s %s\n", day, strings.Repeat("▇", min(e.Streak, 40))+fmt.Sprintf(" %d", e.Streak))
	}
	return b.String()
}
