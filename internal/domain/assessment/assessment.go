package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

// Assessment is one completed symptom check. Once created, records are
// append-only: the original patient-described symptoms and the returned
// guidance are never edited.
type Assessment struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Symptoms  string    `json:"symptoms"`
	Guidance  string    `json:"guidance"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the whole-table snapshot store for assessments.
type Repository interface {
	Load(ctx context.Context) ([]Assessment, error)
	Save(ctx context.Context, assessments []Assessment) error
}
