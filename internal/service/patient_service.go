package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	guard    *StoreGuard
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, guard *StoreGuard, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, auditSvc: auditSvc, guard: guard, log: log}
}

// RegisterPatient creates a patient record without a booking; the doctor
// stays "Not Assigned" until their first appointment.
func (s *PatientService) RegisterPatient(ctx context.Context, cmd *patient.RegisterPatientCommand, ip string) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	patients, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}

	email := patient.NormalizedEmail(cmd.Email)
	for i := range patients {
		if patient.NormalizedEmail(patients[i].Email) == email {
			return nil, patient.ErrPatientAlreadyExists
		}
	}

	p := patient.Patient{
		Name:        strings.TrimSpace(cmd.Name),
		DateOfBirth: strings.TrimSpace(cmd.DateOfBirth),
		Email:       email,
		Phone:       strings.TrimSpace(cmd.Phone),
		Doctor:      patient.NotAssigned,
	}

	if err := s.repo.Save(ctx, append(patients, p)); err != nil {
		s.log.Error("failed to save patients", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       uuid.Nil,
		UserRole:     "patient",
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   email,
		IPAddress:    ip,
	})

	s.log.Info("patient registered", zap.String("email", email))
	return &p, nil
}

// GetPatient returns the record for an email. Patients can only read their
// own record.
func (s *PatientService) GetPatient(ctx context.Context, email string, callerRole string, callerEmail string) (*patient.Patient, error) {
	if callerRole == "patient" && patient.NormalizedEmail(callerEmail) != patient.NormalizedEmail(email) {
		return nil, ErrForbidden
	}
	return s.repo.FindByEmail(ctx, email)
}

// UpdatePatient applies partial updates to the most recent record for the
// email. Patients can only edit their own profile, and cannot reassign
// their doctor.
func (s *PatientService) UpdatePatient(ctx context.Context, email string, cmd *patient.UpdatePatientCommand, callerID uuid.UUID, callerRole string, callerEmail string, ip string) (*patient.Patient, error) {
	if callerRole == "patient" {
		if patient.NormalizedEmail(callerEmail) != patient.NormalizedEmail(email) {
			return nil, ErrForbidden
		}
		if cmd.Doctor != nil {
			return nil, ErrForbidden
		}
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	patients, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}

	key := patient.NormalizedEmail(email)
	idx := -1
	for i := len(patients) - 1; i >= 0; i-- {
		if patient.NormalizedEmail(patients[i].Email) == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, patient.ErrPatientNotFound
	}

	p := &patients[idx]
	if cmd.Name != nil {
		p.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Phone != nil {
		p.Phone = strings.TrimSpace(*cmd.Phone)
	}
	if cmd.DateOfBirth != nil {
		p.DateOfBirth = strings.TrimSpace(*cmd.DateOfBirth)
	}
	if cmd.Doctor != nil {
		p.Doctor = strings.TrimSpace(*cmd.Doctor)
	}
	if cmd.InsuranceCarrier != nil {
		p.InsuranceCarrier = strings.TrimSpace(*cmd.InsuranceCarrier)
	}

	if err := s.repo.Save(ctx, patients); err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   key,
		IPAddress:    ip,
	})

	updated := patients[idx]
	return &updated, nil
}

// ListPatients returns patients matching the query, for the admin dashboard.
func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) ([]patient.Patient, error) {
	patients, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	if q == nil || (q.Search == "" && q.Doctor == "") {
		return patients, nil
	}

	search := strings.ToLower(q.Search)
	matched := make([]patient.Patient, 0)
	for _, p := range patients {
		if q.Doctor != "" && p.Doctor != q.Doctor {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

func validateRegisterCommand(cmd *patient.RegisterPatientCommand) error {
	var fields []string

	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		fields = append(fields, "email is required")
	} else if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		fields = append(fields, "email is not valid")
	}
	if strings.TrimSpace(cmd.DateOfBirth) == "" {
		fields = append(fields, "dob is required")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
