package appointment

import "context"

// Repository is the whole-table snapshot store for appointments.
type Repository interface {
	Load(ctx context.Context) ([]Appointment, error)
	Save(ctx context.Context, appts []Appointment) error
}
