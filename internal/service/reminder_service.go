package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/domain/reminder"
)

// ReminderService manages per-patient medication reminders. Reminders are
// keyed by email and readable only by their owner or staff.
type ReminderService struct {
	repo     reminder.Repository
	auditSvc *AuditService
	guard    *StoreGuard
	log      *zap.Logger
}

func NewReminderService(repo reminder.Repository, auditSvc *AuditService, guard *StoreGuard, log *zap.Logger) *ReminderService {
	return &ReminderService{repo: repo, auditSvc: auditSvc, guard: guard, log: log}
}

func (s *ReminderService) CreateReminder(ctx context.Context, cmd *reminder.CreateReminderCommand, callerID uuid.UUID, callerRole string, ip string) (*reminder.Reminder, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec := reminder.Reminder{
		ID:         uuid.New(),
		Email:      strings.ToLower(strings.TrimSpace(cmd.Email)),
		Medication: strings.TrimSpace(cmd.Medication),
		Times:      strings.TrimSpace(cmd.Times),
		CreatedAt:  time.Now().UTC(),
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	reminders, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading reminders: %w", err)
	}
	if err := s.repo.Save(ctx, append(reminders, rec)); err != nil {
		return nil, fmt.Errorf("saving reminders: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "reminder",
		ResourceID: rec.ID.String(), IPAddress: ip,
	})

	return &rec, nil
}

// ListReminders returns a patient's reminders, newest first. Patients may
// only read their own.
func (s *ReminderService) ListReminders(ctx context.Context, email string, callerRole, callerEmail string) ([]reminder.Reminder, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if callerRole == "patient" && !strings.EqualFold(callerEmail, email) {
		return nil, ErrForbidden
	}

	reminders, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading reminders: %w", err)
	}

	matched := make([]reminder.Reminder, 0)
	for _, r := range reminders {
		if strings.EqualFold(r.Email, email) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, nil
}

func (s *ReminderService) DeleteReminder(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole, callerEmail string, ip string) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	reminders, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading reminders: %w", err)
	}

	idx := -1
	for i := range reminders {
		if reminders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return reminder.ErrReminderNotFound
	}
	if callerRole == "patient" && !strings.EqualFold(reminders[idx].Email, callerEmail) {
		return ErrForbidden
	}

	remaining := append(reminders[:idx:idx], reminders[idx+1:]...)
	if err := s.repo.Save(ctx, remaining); err != nil {
		return fmt.Errorf("saving reminders: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "reminder",
		ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}
