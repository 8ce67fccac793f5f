package habits

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/logger"
	"github.com/julianstephens/daybuddy/internal/models"
	"github.com/julianstephens/daybuddy/internal/storage"
	"github.com/julianstephens/daybuddy/internal/validation"
)

// Directory manages a user's habits. Streak fields are owned by the streak
// engine and are never written here.
type Directory struct {
	store storage.Provider
	now   func() time.Time
}

func NewDirectory(store storage.Provider) *Directory {
	return &Directory{store: store, now: time.Now}
}

// Provision gives a new user the default habit. Returns the user's habits
// and whether anything was created.
func (d *Directory) Provision(ctx context.Context, userID string) ([]models.Habit, bool, error) {
	if err := validation.UserID(userID); err != nil {
		return nil, false, err
	}

	created, err := d.store.ProvisionUser(ctx, d.newHabit(userID, constants.DefaultHabitName))
	if err != nil {
		return nil, false, apperrors.Storage("provision user", err)
	}
	if created {
		logger.Info("User provisioned", "user", userID, "habit", constants.DefaultHabitName)
	}

	habits, err := d.List(ctx, userID)
	return habits, created, err
}

func (d *Directory) Add(ctx context.Context, userID, name string) (models.Habit, error) {
	if err := validation.UserID(userID); err != nil {
		return models.Habit{}, err
	}
	name, err := validation.HabitName(name)
	if err != nil {
		return models.Habit{}, err
	}

	habit := d.newHabit(userID, name)
	if err := d.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, apperrors.Storage("add habit", err)
	}
	logger.Debug("Habit added", "user", userID, "habit", habit.ID)
	return habit, nil
}

// List returns the user's habits, newest first
func (d *Directory) List(ctx context.Context, userID string) ([]models.Habit, error) {
	if err := validation.UserID(userID); err != nil {
		return nil, err
	}
	habits, err := d.store.GetHabitsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("list habits", err)
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	return habits, nil
}

func (d *Directory) Rename(ctx context.Context, userID, id, name string) (models.Habit, error) {
	if err := validation.UserID(userID); err != nil {
		return models.Habit{}, err
	}
	name, err := validation.HabitName(name)
	if err != nil {
		return models.Habit{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.Habit{}, apperrors.Invalid("invalid habit id %q", id)
	}

	if err := d.store.RenameHabit(ctx, userID, id, name); err != nil {
		return models.Habit{}, apperrors.Storage("rename habit", err)
	}
	habit, err := d.store.GetHabit(ctx, userID, id)
	if err != nil {
		return models.Habit{}, apperrors.Storage("get habit", err)
	}
	return habit, nil
}

func (d *Directory) newHabit(userID, name string) models.Habit {
	return models.Habit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: d.now().UTC(),
	}
}
