package patient

import "context"

// Repository is the whole-table snapshot store for patients. Load returns an
// empty table when the backing file is missing; Save replaces the table
// atomically. FindByEmail is the identity lookup used to classify New vs
// Returning visits; it returns the most recent matching row.
type Repository interface {
	Load(ctx context.Context) ([]Patient, error)
	Save(ctx context.Context, patients []Patient) error
	FindByEmail(ctx context.Context, email string) (*Patient, error)
}
