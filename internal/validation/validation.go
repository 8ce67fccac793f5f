package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/daybuddy/internal/constants"
	apperrors "github.com/julianstephens/daybuddy/internal/errors"
	"github.com/julianstephens/daybuddy/internal/utils"
)

// UserID rejects empty, blank or oversized user ids
func UserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Invalid("user id is required")
	}
	if len(userID) > constants.MaxUserIDLength {
		return apperrors.Invalid("user id exceeds %d characters", constants.MaxUserIDLength)
	}
	return nil
}

// Day rejects anything that is not a YYYY-MM-DD calendar date
func Day(day string) error {
	if _, err := utils.ParseDay(day); err != nil {
		return apperrors.Invalid("%v", err)
	}
	return nil
}

// HabitName trims name and rejects empty or oversized names
func HabitName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Invalid("habit name is required")
	}
	if utf8.RuneCountInString(name) > constants.MaxHabitNameLength {
		return "", apperrors.Invalid("habit name exceeds %d characters", constants.MaxHabitNameLength)
	}
	return name, nil
}
