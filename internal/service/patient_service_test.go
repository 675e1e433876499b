package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/storage/csvstore"
)

func newPatientFixture(t *testing.T) (*PatientService, *csvstore.PatientRepository) {
	t.Helper()

	cfg := config.StorageConfig{DataDir: t.TempDir(), PatientsFile: "patients.csv"}
	log := zap.NewNop()
	auditSvc := NewAuditService(nopAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)

	repo := csvstore.NewPatientRepository(cfg)
	return NewPatientService(repo, auditSvc, &StoreGuard{}, log), repo
}

func TestRegisterPatientStartsUnassigned(t *testing.T) {
	svc, _ := newPatientFixture(t)

	p, err := svc.RegisterPatient(context.Background(), &patient.RegisterPatientCommand{
		Name:        "Alice Wong",
		Email:       "Alice@Example.com",
		Phone:       "555-0101",
		DateOfBirth: "02-05-1979",
	}, "")
	if err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}
	if p.Doctor != patient.NotAssigned {
		t.Errorf("doctor = %q, want %q", p.Doctor, patient.NotAssigned)
	}
	if p.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", p.Email)
	}
}

func TestRegisterPatientDuplicateEmail(t *testing.T) {
	svc, _ := newPatientFixture(t)
	ctx := context.Background()

	cmd := &patient.RegisterPatientCommand{Name: "Alice Wong", Email: "alice@example.com", DateOfBirth: "02-05-1979"}
	if _, err := svc.RegisterPatient(ctx, cmd, ""); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}
	if _, err := svc.RegisterPatient(ctx, cmd, ""); !errors.Is(err, patient.ErrPatientAlreadyExists) {
		t.Fatalf("duplicate register = %v, want ErrPatientAlreadyExists", err)
	}
}

func TestRegisterPatientValidation(t *testing.T) {
	svc, _ := newPatientFixture(t)

	_, err := svc.RegisterPatient(context.Background(), &patient.RegisterPatientCommand{Email: "bad"}, "")
	var validErr *ValidationError
	if !errors.As(err, &validErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(validErr.Fields) != 3 {
		t.Errorf("fields = %v, want name, email, and dob failures", validErr.Fields)
	}
}

func TestPatientCanOnlyReadOwnRecord(t *testing.T) {
	svc, _ := newPatientFixture(t)
	ctx := context.Background()

	if _, err := svc.RegisterPatient(ctx, &patient.RegisterPatientCommand{
		Name: "Alice Wong", Email: "alice@example.com", DateOfBirth: "02-05-1979",
	}, ""); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	if _, err := svc.GetPatient(ctx, "alice@example.com", "patient", "intruder@example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-patient read = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetPatient(ctx, "alice@example.com", "patient", "ALICE@example.com"); err != nil {
		t.Fatalf("self read: %v", err)
	}
	if _, err := svc.GetPatient(ctx, "alice@example.com", "admin", ""); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestPatientCannotReassignDoctor(t *testing.T) {
	svc, _ := newPatientFixture(t)
	ctx := context.Background()

	if _, err := svc.RegisterPatient(ctx, &patient.RegisterPatientCommand{
		Name: "Alice Wong", Email: "alice@example.com", DateOfBirth: "02-05-1979",
	}, ""); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	doctor := "Smith"
	_, err := svc.UpdatePatient(ctx, "alice@example.com", &patient.UpdatePatientCommand{Doctor: &doctor}, uuid.New(), "patient", "alice@example.com", "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("patient doctor reassignment = %v, want ErrForbidden", err)
	}

	// Staff may reassign.
	updated, err := svc.UpdatePatient(ctx, "alice@example.com", &patient.UpdatePatientCommand{Doctor: &doctor}, uuid.New(), "admin", "", "")
	if err != nil {
		t.Fatalf("admin doctor reassignment: %v", err)
	}
	if updated.Doctor != "Smith" {
		t.Errorf("doctor = %q, want Smith", updated.Doctor)
	}
}

func TestUpdatePatientPartialFields(t *testing.T) {
	svc, repo := newPatientFixture(t)
	ctx := context.Background()

	if _, err := svc.RegisterPatient(ctx, &patient.RegisterPatientCommand{
		Name: "Alice Wong", Email: "alice@example.com", Phone: "555-0101", DateOfBirth: "02-05-1979",
	}, ""); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	phone := "555-0999"
	updated, err := svc.UpdatePatient(ctx, "alice@example.com", &patient.UpdatePatientCommand{Phone: &phone}, uuid.New(), "patient", "alice@example.com", "")
	if err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if updated.Phone != "555-0999" {
		t.Errorf("phone = %q, want 555-0999", updated.Phone)
	}
	if updated.Name != "Alice Wong" {
		t.Errorf("untouched name changed to %q", updated.Name)
	}

	persisted, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if persisted.Phone != "555-0999" {
		t.Errorf("persisted phone = %q, want 555-0999", persisted.Phone)
	}
}

func TestListPatientsFilters(t *testing.T) {
	svc, repo := newPatientFixture(t)
	ctx := context.Background()

	seed := []patient.Patient{
		{Name: "Alice Wong", Email: "alice@example.com", Doctor: "Smith"},
		{Name: "Bob Ray", Email: "bob@example.com", Doctor: "Patel"},
		{Name: "Carol Alvarez", Email: "carol@example.com", Doctor: "Smith"},
	}
	if err := repo.Save(ctx, seed); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	byDoctor, err := svc.ListPatients(ctx, &patient.ListPatientsQuery{Doctor: "Smith"})
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(byDoctor) != 2 {
		t.Fatalf("got %d patients for Smith, want 2", len(byDoctor))
	}

	bySearch, err := svc.ListPatients(ctx, &patient.ListPatientsQuery{Search: "bob"})
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Name != "Bob Ray" {
		t.Fatalf("search result = %+v, want Bob Ray", bySearch)
	}
}
