package csvstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/reminder"
)

var reminderHeader = []string{"id", "email", "medication", "times", "created_at"}

type ReminderRepository struct {
	table *Table
}

func NewReminderRepository(cfg config.StorageConfig) *ReminderRepository {
	return &ReminderRepository{table: NewTable(cfg.DataDir, cfg.RemindersFile, reminderHeader)}
}

func (r *ReminderRepository) Load(ctx context.Context) ([]reminder.Reminder, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	reminders := make([]reminder.Reminder, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row[0])
		if err != nil {
			id = uuid.New()
		}
		createdAt, _ := time.Parse(time.RFC3339, row[4])
		reminders = append(reminders, reminder.Reminder{
			ID:         id,
			Email:      row[1],
			Medication: row[2],
			Times:      row[3],
			CreatedAt:  createdAt,
		})
	}
	return reminders, nil
}

func (r *ReminderRepository) Save(ctx context.Context, reminders []reminder.Reminder) error {
	rows := make([][]string, 0, len(reminders))
	for _, rem := range reminders {
		rows = append(rows, []string{
			rem.ID.String(), rem.Email, rem.Medication, rem.Times,
			rem.CreatedAt.Format(time.RFC3339),
		})
	}
	return r.table.Write(rows)
}
