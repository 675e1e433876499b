package csvstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/assessment"
)

var assessmentHeader = []string{"id", "email", "symptoms", "guidance", "model", "created_at"}

type AssessmentRepository struct {
	table *Table
}

func NewAssessmentRepository(cfg config.StorageConfig) *AssessmentRepository {
	return &AssessmentRepository{table: NewTable(cfg.DataDir, cfg.AssessmentsFile, assessmentHeader)}
}

func (r *AssessmentRepository) Load(ctx context.Context) ([]assessment.Assessment, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	assessments := make([]assessment.Assessment, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row[0])
		if err != nil {
			id = uuid.New()
		}
		createdAt, _ := time.Parse(time.RFC3339, row[5])
		assessments = append(assessments, assessment.Assessment{
			ID:        id,
			Email:     row[1],
			Symptoms:  row[2],
			Guidance:  row[3],
			Model:     row[4],
			CreatedAt: createdAt,
		})
	}
	return assessments, nil
}

func (r *AssessmentRepository) Save(ctx context.Context, assessments []assessment.Assessment) error {
	rows := make([][]string, 0, len(assessments))
	for _, a := range assessments {
		rows = append(rows, []string{
			a.ID.String(), a.Email, a.Symptoms, a.Guidance, a.Model,
			a.CreatedAt.Format(time.RFC3339),
		})
	}
	return r.table.Write(rows)
}
