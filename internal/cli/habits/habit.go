package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/models"
)

type UserCmd struct {
	Provision UserProvisionCmd `cmd:"" help:"Create a user's default habit if they have none."`
}

type UserProvisionCmd struct {
	User string `arg:"" help:"User ID."`
}

func (c *UserProvisionCmd) Run(ctx *cli.Context) error {
	habits, created, err := ctx.Habits().Provision(context.Background(), c.User)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Provisioned %s with habit %q\n", c.User, habits[0].Name)
	} else {
		fmt.Printf("%s already has %d habit(s)\n", c.User, len(habits))
	}
	return nil
}

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits, newest first."`
	Rename HabitRenameCmd `cmd:"" help:"Rename a habit."`
}

type HabitAddCmd struct {
	User string `arg:"" help:"User ID."`
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Habits().Add(context.Background(), c.User, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Added habit: %s (%s)\n", habit.Name, habit.ID)
	return nil
}

type HabitListCmd struct {
	User string `arg:"" help:"User ID."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Habits().List(context.Background(), c.User)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, habit := range habits {
		fmt.Println(formatHabit(habit))
	}
	return nil
}

type HabitRenameCmd struct {
	User string `arg:"" help:"User ID."`
	ID   string `arg:"" help:"Habit ID."`
	Name string `arg:"" help:"New name."`
}

func (c *HabitRenameCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Habits().Rename(context.Background(), c.User, c.ID, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Renamed habit %s to %q\n", habit.ID, habit.Name)
	return nil
}

func formatHabit(h models.Habit) string {
	last := "never"
	if h.LastQualifiedDay != nil {
		last = *h.LastQualifiedDay
	}
	return fmt.Sprintf("- %s (ID: %s) streak: %d, last qualified: %s", h.Name, h.ID, h.StreakCount, last)
}
