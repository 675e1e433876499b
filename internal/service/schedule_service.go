package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/domain/schedule"
)

// ScheduleService covers the administrative side of the slot tables: adding
// slots, bulk-generating a doctor's schedule, and status overrides. All
// mutations go through the shared store guard.
type ScheduleService struct {
	repo     schedule.Repository
	auditSvc *AuditService
	guard    *StoreGuard
	log      *zap.Logger
}

func NewScheduleService(repo schedule.Repository, auditSvc *AuditService, guard *StoreGuard, log *zap.Logger) *ScheduleService {
	return &ScheduleService{repo: repo, auditSvc: auditSvc, guard: guard, log: log}
}

// ListSlots returns the full table for a modality, optionally filtered by
// doctor and status.
func (s *ScheduleService) ListSlots(ctx context.Context, m schedule.Modality, doctor string, status *schedule.SlotStatus) ([]schedule.Slot, error) {
	slots, err := s.repo.Load(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", m, err)
	}

	matched := make([]schedule.Slot, 0, len(slots))
	for _, slot := range slots {
		if doctor != "" && slot.Doctor != doctor {
			continue
		}
		if status != nil && slot.Status != *status {
			continue
		}
		matched = append(matched, slot)
	}
	return matched, nil
}

// ListDoctors returns the distinct doctors of a modality's table, sorted.
func (s *ScheduleService) ListDoctors(ctx context.Context, m schedule.Modality) ([]string, error) {
	slots, err := s.repo.Load(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", m, err)
	}

	seen := make(map[string]struct{})
	doctors := make([]string, 0)
	for _, slot := range slots {
		if _, ok := seen[slot.Doctor]; !ok {
			seen[slot.Doctor] = struct{}{}
			doctors = append(doctors, slot.Doctor)
		}
	}
	sort.Strings(doctors)
	return doctors, nil
}

// AddSlot appends a single Available slot.
func (s *ScheduleService) AddSlot(ctx context.Context, cmd *schedule.AddSlotCommand, callerID uuid.UUID, callerRole string, ip string) (*schedule.Slot, error) {
	key := schedule.SlotKey{Doctor: strings.TrimSpace(cmd.Doctor), Date: cmd.Date, TimeSlot: cmd.TimeSlot, Modality: cmd.Modality}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	slots, err := s.repo.Load(ctx, cmd.Modality)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", cmd.Modality, err)
	}

	for i := range slots {
		if slots[i].Key() == key {
			return nil, schedule.ErrSlotExists
		}
	}

	slot := schedule.Slot{
		Doctor:   key.Doctor,
		Date:     key.Date,
		TimeSlot: key.TimeSlot,
		Status:   schedule.StatusAvailable,
		Modality: cmd.Modality,
	}

	if err := s.repo.Save(ctx, cmd.Modality, append(slots, slot)); err != nil {
		return nil, fmt.Errorf("saving %s schedule: %w", cmd.Modality, err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "slot",
		ResourceID: key.Doctor + " " + key.DisplaySlot(), IPAddress: ip,
	})

	return &slot, nil
}

// GenerateSchedule bulk-creates Available slots for one doctor: every date
// in [StartDate, EndDate] crossed with the time list. Keys that already
// exist are skipped, so regeneration never clobbers booked slots.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, cmd *schedule.GenerateScheduleCommand, callerID uuid.UUID, callerRole string, ip string) (int, error) {
	doctor := strings.TrimSpace(cmd.Doctor)
	if doctor == "" {
		return 0, schedule.ErrDoctorRequired
	}
	start, err := time.Parse("2006-01-02", cmd.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: start_date %q", schedule.ErrMalformedSlot, cmd.StartDate)
	}
	end, err := time.Parse("2006-01-02", cmd.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%w: end_date %q", schedule.ErrMalformedSlot, cmd.EndDate)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end_date before start_date", schedule.ErrMalformedSlot)
	}
	if len(cmd.TimeSlots) == 0 {
		return 0, fmt.Errorf("%w: no time slots given", schedule.ErrMalformedSlot)
	}
	for _, ts := range cmd.TimeSlots {
		if _, err := time.Parse("15:04", ts); err != nil {
			return 0, fmt.Errorf("%w: time_slot %q", schedule.ErrMalformedSlot, ts)
		}
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	slots, err := s.repo.Load(ctx, cmd.Modality)
	if err != nil {
		return 0, fmt.Errorf("loading %s schedule: %w", cmd.Modality, err)
	}

	existing := make(map[schedule.SlotKey]struct{}, len(slots))
	for i := range slots {
		existing[slots[i].Key()] = struct{}{}
	}

	created := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		for _, ts := range cmd.TimeSlots {
			key := schedule.SlotKey{Doctor: doctor, Date: date, TimeSlot: ts, Modality: cmd.Modality}
			if _, ok := existing[key]; ok {
				continue
			}
			slots = append(slots, schedule.Slot{
				Doctor:   doctor,
				Date:     date,
				TimeSlot: ts,
				Status:   schedule.StatusAvailable,
				Modality: cmd.Modality,
			})
			existing[key] = struct{}{}
			created++
		}
	}

	if created == 0 {
		return 0, nil
	}

	if err := s.repo.Save(ctx, cmd.Modality, slots); err != nil {
		return 0, fmt.Errorf("saving %s schedule: %w", cmd.Modality, err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "schedule",
		ResourceID: doctor, IPAddress: ip,
		Changes: fmt.Sprintf(`{"created":%d,"modality":%q}`, created, cmd.Modality),
	})

	s.log.Info("schedule generated",
		zap.String("doctor", doctor),
		zap.String("modality", string(cmd.Modality)),
		zap.Int("created", created),
	)
	return created, nil
}

// SetSlotStatus is the administrative override: block a slot, unblock it, or
// force a status during cleanup. Transitions must be legal for the slot's
// current state.
func (s *ScheduleService) SetSlotStatus(ctx context.Context, cmd *schedule.SetSlotStatusCommand, callerID uuid.UUID, callerRole string, ip string) (*schedule.Slot, error) {
	if err := cmd.Key.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", schedule.ErrMalformedSlot, cmd.Status)
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	slots, err := s.repo.Load(ctx, cmd.Key.Modality)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", cmd.Key.Modality, err)
	}

	idx := -1
	for i := range slots {
		if slots[i].Key() == cmd.Key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, schedule.ErrSlotNotFound
	}

	if slots[idx].Status != cmd.Status {
		if !slots[idx].CanTransitionTo(cmd.Status) {
			return nil, schedule.ErrInvalidTransition
		}
		slots[idx].Status = cmd.Status
		if err := s.repo.Save(ctx, cmd.Key.Modality, slots); err != nil {
			return nil, fmt.Errorf("saving %s schedule: %w", cmd.Key.Modality, err)
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "slot",
		ResourceID: cmd.Key.Doctor + " " + cmd.Key.DisplaySlot(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":%q}`, cmd.Status),
	})

	slot := slots[idx]
	return &slot, nil
}

// Stats summarizes a modality's table for the admin dashboard.
func (s *ScheduleService) Stats(ctx context.Context, m schedule.Modality) (*schedule.Stats, error) {
	slots, err := s.repo.Load(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", m, err)
	}

	stats := &schedule.Stats{Total: len(slots)}
	for _, slot := range slots {
		switch slot.Status {
		case schedule.StatusAvailable:
			stats.Available++
		case schedule.StatusBooked:
			stats.Booked++
		case schedule.StatusBlocked:
			stats.Blocked++
		}
	}
	return stats, nil
}
