package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

// BookingService owns the doctor-availability tables and the transition of a
// slot from Available to Booked. All mutating operations serialize behind the
// shared store guard so a booking is atomic with respect to other bookings,
// cancellations, and schedule edits; reads go straight to the last committed
// snapshot.
type BookingService struct {
	slotRepo    schedule.Repository
	apptRepo    appointment.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	notifySvc   *NotificationService
	guard       *StoreGuard
	log         *zap.Logger
}

func NewBookingService(
	slotRepo schedule.Repository,
	apptRepo appointment.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	notifySvc *NotificationService,
	guard *StoreGuard,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		slotRepo:    slotRepo,
		apptRepo:    apptRepo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		notifySvc:   notifySvc,
		guard:       guard,
		log:         log,
	}
}

// BookingRequest carries the full booking workflow context as an explicit
// value: the slot being claimed and the patient/visit data to attach.
type BookingRequest struct {
	Slot             schedule.SlotKey
	PatientName      string
	DateOfBirth      string
	Email            string
	Phone            string
	InsuranceCarrier string
}

type BookingResult struct {
	Appointment    *appointment.Appointment `json:"appointment"`
	VisitType      patient.VisitType        `json:"visit_type"`
	PatientCreated bool                     `json:"patient_created"`
}

type CancelResult struct {
	Appointment  *appointment.Appointment `json:"appointment"`
	SlotReleased bool                     `json:"slot_released"`
}

// ListAvailableSlots returns the Available slots for a doctor and modality in
// chronological order. An unknown doctor yields an empty result, not an
// error. maxResults <= 0 means no cap.
func (s *BookingService) ListAvailableSlots(ctx context.Context, doctor string, m schedule.Modality, maxResults int) ([]schedule.Slot, error) {
	slots, err := s.slotRepo.Load(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", m, err)
	}

	open := make([]schedule.Slot, 0)
	for _, slot := range slots {
		if slot.Doctor == doctor && slot.Status == schedule.StatusAvailable {
			open = append(open, slot)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, errA := open[i].StartTime()
		b, errB := open[j].StartTime()
		if errA != nil || errB != nil {
			return false
		}
		return a.Before(b)
	})

	if maxResults > 0 && len(open) > maxResults {
		open = open[:maxResults]
	}
	return open, nil
}

// BookSlot claims an Available slot and appends the confirmed appointment.
// Exactly one of two racing calls for the same slot succeeds; the loser gets
// schedule.ErrSlotUnavailable. A failed call leaves every store untouched.
func (s *BookingService) BookSlot(ctx context.Context, req *BookingRequest, callerID uuid.UUID, callerRole string, ip string) (*BookingResult, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}
	if err := req.Slot.Validate(); err != nil {
		return nil, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	slots, err := s.slotRepo.Load(ctx, req.Slot.Modality)
	if err != nil {
		return nil, fmt.Errorf("loading %s schedule: %w", req.Slot.Modality, err)
	}

	doctorKnown := false
	slotIdx := -1
	for i := range slots {
		if slots[i].Doctor != req.Slot.Doctor {
			continue
		}
		doctorKnown = true
		if slots[i].Date == req.Slot.Date && slots[i].TimeSlot == req.Slot.TimeSlot {
			slotIdx = i
			break
		}
	}
	if !doctorKnown {
		return nil, schedule.ErrUnknownDoctor
	}
	if slotIdx < 0 {
		// The slot listed earlier no longer exists; treat like any other
		// concurrent mutation of the store.
		return nil, schedule.ErrSlotUnavailable
	}

	prevStatus := slots[slotIdx].Status
	if err := slots[slotIdx].Book(); err != nil {
		return nil, err
	}

	patients, err := s.patientRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	appts, err := s.apptRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}

	visitType, patientIdx := classifyVisit(patients, req.Email)

	appt := appointment.Appointment{
		ID:               uuid.New(),
		PatientName:      strings.TrimSpace(req.PatientName),
		DateOfBirth:      strings.TrimSpace(req.DateOfBirth),
		VisitType:        visitType,
		Doctor:           req.Slot.Doctor,
		Date:             req.Slot.Date,
		TimeSlot:         req.Slot.TimeSlot,
		Modality:         req.Slot.Modality,
		InsuranceCarrier: strings.TrimSpace(req.InsuranceCarrier),
		Email:            patient.NormalizedEmail(req.Email),
		CreatedAt:        time.Now(),
	}

	patientCreated := false
	if patientIdx < 0 {
		patients = append(patients, patient.Patient{
			Name:             appt.PatientName,
			DateOfBirth:      appt.DateOfBirth,
			Email:            appt.Email,
			Phone:            strings.TrimSpace(req.Phone),
			Doctor:           appt.Doctor,
			InsuranceCarrier: appt.InsuranceCarrier,
		})
		patientCreated = true
	} else {
		// Returning patient: the booked doctor becomes the assigned doctor.
		patients[patientIdx].Doctor = appt.Doctor
		if appt.InsuranceCarrier != "" {
			patients[patientIdx].InsuranceCarrier = appt.InsuranceCarrier
		}
	}

	// Slot store commits first: a crash after this point leaves a
	// Booked-but-unconfirmed slot, never a double-counted appointment.
	if err := s.slotRepo.Save(ctx, req.Slot.Modality, slots); err != nil {
		return nil, fmt.Errorf("saving %s schedule: %w", req.Slot.Modality, err)
	}

	if err := s.apptRepo.Save(ctx, append(appts, appt)); err != nil {
		// Roll the slot back so the failed call leaves the stores as found.
		slots[slotIdx].Status = prevStatus
		if rbErr := s.slotRepo.Save(ctx, req.Slot.Modality, slots); rbErr != nil {
			s.log.Error("slot rollback failed after appointment write error",
				zap.String("doctor", req.Slot.Doctor),
				zap.String("slot", req.Slot.DisplaySlot()),
				zap.Error(rbErr),
			)
		}
		return nil, fmt.Errorf("saving appointments: %w", err)
	}

	if err := s.patientRepo.Save(ctx, patients); err != nil {
		// The booking itself is committed; a stale patient row is the
		// recoverable direction, so report and keep the appointment.
		s.log.Error("failed to save patients after booking", zap.Error(err))
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   appt.ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"doctor":%q,"slot":%q,"modality":%q}`, appt.Doctor, appt.DisplaySlot(), appt.Modality),
	})
	s.notifySvc.AppointmentBooked(&appt)

	s.log.Info("slot booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("doctor", appt.Doctor),
		zap.String("slot", appt.DisplaySlot()),
		zap.String("modality", string(appt.Modality)),
		zap.String("visit_type", string(visitType)),
	)

	return &BookingResult{
		Appointment:    &appt,
		VisitType:      visitType,
		PatientCreated: patientCreated,
	}, nil
}

// CancelAppointment removes the appointment and reverts its slot to
// Available so it can be rebooked.
func (s *BookingService) CancelAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerEmail string, ip string) (*CancelResult, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	appts, err := s.apptRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}

	idx := -1
	for i := range appts {
		if appts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, appointment.ErrAppointmentNotFound
	}
	cancelled := appts[idx]

	// Patients can only cancel their own appointments.
	if callerRole == "patient" {
		if patient.NormalizedEmail(callerEmail) != patient.NormalizedEmail(cancelled.Email) {
			return nil, ErrForbidden
		}
	}

	remaining := append(appts[:idx:idx], appts[idx+1:]...)

	// Appointment removal commits first; a crash before the slot revert
	// leaves a Booked slot with no appointment, which an admin can unblock,
	// rather than an Available slot with a live appointment.
	if err := s.apptRepo.Save(ctx, remaining); err != nil {
		return nil, fmt.Errorf("saving appointments: %w", err)
	}

	released := false
	slots, err := s.slotRepo.Load(ctx, cancelled.Modality)
	if err != nil {
		s.log.Error("loading schedule for slot release failed", zap.Error(err))
	} else {
		key := cancelled.SlotKey()
		for i := range slots {
			if slots[i].Key() == key && slots[i].Status == schedule.StatusBooked {
				slots[i].Release()
				if err := s.slotRepo.Save(ctx, cancelled.Modality, slots); err != nil {
					s.log.Error("saving schedule after slot release failed", zap.Error(err))
				} else {
					released = true
				}
				break
			}
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"slot_released":%t}`, released),
	})
	s.notifySvc.AppointmentCancelled(&cancelled)

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", id.String()),
		zap.Bool("slot_released", released),
	)

	return &CancelResult{Appointment: &cancelled, SlotReleased: released}, nil
}

// ListAppointments returns appointments matching the query, newest first.
func (s *BookingService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery) ([]appointment.Appointment, error) {
	appts, err := s.apptRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}

	matched := make([]appointment.Appointment, 0)
	for _, a := range appts {
		if q == nil || q.Matches(&a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func validateBookingRequest(req *BookingRequest) error {
	var fields []string

	if strings.TrimSpace(req.PatientName) == "" {
		fields = append(fields, "name is required")
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		fields = append(fields, "dob is required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		fields = append(fields, "email is required")
	} else if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		fields = append(fields, "email is not valid")
	}

	if len(fields) > 0 {
		return fmt.Errorf("%w: %s", appointment.ErrInvalidPatientRecord, strings.Join(fields, "; "))
	}
	return nil
}

// classifyVisit returns Returning plus the row index when the email is
// already known, or New with -1 when it is not. The most recent matching row
// wins, mirroring the identity lookup of the patient store.
func classifyVisit(patients []patient.Patient, email string) (patient.VisitType, int) {
	key := patient.NormalizedEmail(email)
	for i := len(patients) - 1; i >= 0; i-- {
		if patient.NormalizedEmail(patients[i].Email) == key {
			return patient.VisitReturning, i
		}
	}
	return patient.VisitNew, -1
}
