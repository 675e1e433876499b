package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrReminderNotFound   = errors.New("reminder not found")
	ErrMedicationRequired = errors.New("medication name is required")
	ErrTimesRequired      = errors.New("at least one reminder time is required")
)

// Reminder is one medication reminder, e.g. "Aspirin at 08:00, 20:00".
type Reminder struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Medication string    `json:"medication"`
	Times      string    `json:"times"` // comma-separated HH:MM values
	CreatedAt  time.Time `json:"created_at"`
}

type CreateReminderCommand struct {
	Email      string
	Medication string
	Times      string
}

func (c *CreateReminderCommand) Validate() error {
	if strings.TrimSpace(c.Medication) == "" {
		return ErrMedicationRequired
	}
	if strings.TrimSpace(c.Times) == "" {
		return ErrTimesRequired
	}
	return nil
}

// Repository is the whole-table snapshot store for reminders.
type Repository interface {
	Load(ctx context.Context) ([]Reminder, error)
	Save(ctx context.Context, reminders []Reminder) error
}
