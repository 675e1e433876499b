package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/reminder"
	"github.com/medicareplus/portal/internal/storage/csvstore"
)

func newReminderFixture(t *testing.T) *ReminderService {
	t.Helper()

	log := zap.NewNop()
	auditSvc := NewAuditService(nopAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)

	repo := csvstore.NewReminderRepository(config.StorageConfig{DataDir: t.TempDir(), RemindersFile: "reminders.csv"})
	return NewReminderService(repo, auditSvc, &StoreGuard{}, log)
}

func TestReminderLifecycle(t *testing.T) {
	svc := newReminderFixture(t)
	ctx := context.Background()

	rec, err := svc.CreateReminder(ctx, &reminder.CreateReminderCommand{
		Email:      "Alice@Example.com",
		Medication: "Aspirin",
		Times:      "08:00, 20:00",
	}, uuid.New(), "patient", "")
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if rec.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", rec.Email)
	}

	list, err := svc.ListReminders(ctx, "alice@example.com", "patient", "alice@example.com")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(list) != 1 || list[0].Medication != "Aspirin" {
		t.Fatalf("list = %+v, want the created reminder", list)
	}

	if err := svc.DeleteReminder(ctx, rec.ID, uuid.New(), "patient", "alice@example.com", ""); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	list, err = svc.ListReminders(ctx, "alice@example.com", "patient", "alice@example.com")
	if err != nil {
		t.Fatalf("ListReminders after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d reminders after delete, want 0", len(list))
	}
}

func TestReminderValidation(t *testing.T) {
	svc := newReminderFixture(t)
	ctx := context.Background()

	_, err := svc.CreateReminder(ctx, &reminder.CreateReminderCommand{Email: "a@example.com", Times: "08:00"}, uuid.New(), "patient", "")
	if !errors.Is(err, reminder.ErrMedicationRequired) {
		t.Fatalf("error = %v, want ErrMedicationRequired", err)
	}
	_, err = svc.CreateReminder(ctx, &reminder.CreateReminderCommand{Email: "a@example.com", Medication: "Aspirin"}, uuid.New(), "patient", "")
	if !errors.Is(err, reminder.ErrTimesRequired) {
		t.Fatalf("error = %v, want ErrTimesRequired", err)
	}
}

func TestReminderOwnership(t *testing.T) {
	svc := newReminderFixture(t)
	ctx := context.Background()

	rec, err := svc.CreateReminder(ctx, &reminder.CreateReminderCommand{
		Email:      "alice@example.com",
		Medication: "Metformin",
		Times:      "09:00",
	}, uuid.New(), "doctor", "")
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	if _, err := svc.ListReminders(ctx, "alice@example.com", "patient", "intruder@example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-patient list = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteReminder(ctx, rec.ID, uuid.New(), "patient", "intruder@example.com", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-patient delete = %v, want ErrForbidden", err)
	}

	if err := svc.DeleteReminder(ctx, uuid.New(), uuid.New(), "admin", "", ""); !errors.Is(err, reminder.ErrReminderNotFound) {
		t.Fatalf("unknown delete = %v, want ErrReminderNotFound", err)
	}
}
