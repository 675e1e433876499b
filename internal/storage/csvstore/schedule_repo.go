package csvstore

import (
	"context"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

var scheduleHeader = []string{"doctor", "date", "time_slot", "status"}

// ScheduleRepository keeps one table per modality, matching the legacy
// portal's separate in-person and video schedule files.
type ScheduleRepository struct {
	tables map[schedule.Modality]*Table
}

func NewScheduleRepository(cfg config.StorageConfig) *ScheduleRepository {
	return &ScheduleRepository{
		tables: map[schedule.Modality]*Table{
			schedule.ModalityInPerson: NewTable(cfg.DataDir, cfg.ScheduleFile, scheduleHeader),
			schedule.ModalityVideo:    NewTable(cfg.DataDir, cfg.VideoScheduleFile, scheduleHeader),
		},
	}
}

func (r *ScheduleRepository) Load(ctx context.Context, m schedule.Modality) ([]schedule.Slot, error) {
	rows, err := r.tables[m].Read()
	if err != nil {
		return nil, err
	}

	slots := make([]schedule.Slot, 0, len(rows))
	for _, row := range rows {
		status, err := schedule.ParseSlotStatus(row[3])
		if err != nil {
			// Unknown labels in hand-edited files load as Blocked rather
			// than failing the whole table.
			status = schedule.StatusBlocked
		}
		slots = append(slots, schedule.Slot{
			Doctor:   row[0],
			Date:     row[1],
			TimeSlot: row[2],
			Status:   status,
			Modality: m,
		})
	}
	return slots, nil
}

func (r *ScheduleRepository) Save(ctx context.Context, m schedule.Modality, slots []schedule.Slot) error {
	rows := make([][]string, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, []string{s.Doctor, s.Date, s.TimeSlot, string(s.Status)})
	}
	return r.tables[m].Write(rows)
}
