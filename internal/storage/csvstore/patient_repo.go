package csvstore

import (
	"context"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/patient"
)

var patientHeader = []string{"name", "dob", "email", "phone", "doctor", "insurance_carrier"}

type PatientRepository struct {
	table *Table
}

func NewPatientRepository(cfg config.StorageConfig) *PatientRepository {
	return &PatientRepository{table: NewTable(cfg.DataDir, cfg.PatientsFile, patientHeader)}
}

func (r *PatientRepository) Load(ctx context.Context) ([]patient.Patient, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	patients := make([]patient.Patient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, patient.Patient{
			Name:             row[0],
			DateOfBirth:      row[1],
			Email:            row[2],
			Phone:            row[3],
			Doctor:           row[4],
			InsuranceCarrier: row[5],
		})
	}
	return patients, nil
}

func (r *PatientRepository) Save(ctx context.Context, patients []patient.Patient) error {
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{p.Name, p.DateOfBirth, p.Email, p.Phone, p.Doctor, p.InsuranceCarrier})
	}
	return r.table.Write(rows)
}

// FindByEmail returns the most recent row matching the email, i.e. the last
// one in store order. Returns ErrPatientNotFound when the email is unknown.
func (r *PatientRepository) FindByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	patients, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	key := patient.NormalizedEmail(email)
	for i := len(patients) - 1; i >= 0; i-- {
		if patient.NormalizedEmail(patients[i].Email) == key {
			p := patients[i]
			return &p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}
