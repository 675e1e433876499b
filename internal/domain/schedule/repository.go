package schedule

import "context"

// Repository is the whole-table snapshot store for one modality's schedule.
// Load returns an empty table when the backing file does not exist yet;
// Save replaces the table atomically.
type Repository interface {
	Load(ctx context.Context, m Modality) ([]Slot, error)
	Save(ctx context.Context, m Modality, slots []Slot) error
}
