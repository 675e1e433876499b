package csvstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

var appointmentHeader = []string{
	"id", "name", "dob", "visit_type", "doctor",
	"date", "time_slot", "consult_type", "insurance_carrier", "email", "created_at",
}

type AppointmentRepository struct {
	table *Table
}

func NewAppointmentRepository(cfg config.StorageConfig) *AppointmentRepository {
	return &AppointmentRepository{table: NewTable(cfg.DataDir, cfg.AppointmentsFile, appointmentHeader)}
}

func (r *AppointmentRepository) Load(ctx context.Context) ([]appointment.Appointment, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	appts := make([]appointment.Appointment, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row[0])
		if err != nil {
			// Rows imported from the legacy store carry no id; assign one so
			// cancellation has a stable handle.
			id = uuid.New()
		}
		modality, err := schedule.ParseModality(row[7])
		if err != nil {
			modality = schedule.ModalityInPerson
		}
		createdAt, _ := time.Parse(time.RFC3339, row[10])

		appts = append(appts, appointment.Appointment{
			ID:               id,
			PatientName:      row[1],
			DateOfBirth:      row[2],
			VisitType:        patient.VisitType(row[3]),
			Doctor:           row[4],
			Date:             row[5],
			TimeSlot:         row[6],
			Modality:         modality,
			InsuranceCarrier: row[8],
			Email:            row[9],
			CreatedAt:        createdAt,
		})
	}
	return appts, nil
}

func (r *AppointmentRepository) Save(ctx context.Context, appts []appointment.Appointment) error {
	rows := make([][]string, 0, len(appts))
	for _, a := range appts {
		createdAt := ""
		if !a.CreatedAt.IsZero() {
			createdAt = a.CreatedAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			a.ID.String(), a.PatientName, a.DateOfBirth, string(a.VisitType), a.Doctor,
			a.Date, a.TimeSlot, a.Modality.Display(), a.InsuranceCarrier, a.Email, createdAt,
		})
	}
	return r.table.Write(rows)
}
