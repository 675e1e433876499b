package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

// Appointment is one row of the appointment store. It references its slot by
// the stable composite key (doctor, date, time, modality); the legacy
// "<date> <time>" display string is derived, never stored as the reference.
type Appointment struct {
	ID               uuid.UUID         `json:"id"`
	PatientName      string            `json:"name"`
	DateOfBirth      string            `json:"dob"`
	VisitType        patient.VisitType `json:"visit_type"`
	Doctor           string            `json:"doctor"`
	Date             string            `json:"date"`
	TimeSlot         string            `json:"time_slot"`
	Modality         schedule.Modality `json:"consult_type"`
	InsuranceCarrier string            `json:"insurance_carrier"`
	Email            string            `json:"email"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (a *Appointment) SlotKey() schedule.SlotKey {
	return schedule.SlotKey{
		Doctor:   a.Doctor,
		Date:     a.Date,
		TimeSlot: a.TimeSlot,
		Modality: a.Modality,
	}
}

// DisplaySlot is the patient-facing "<date> <time>" string used in
// confirmation emails and listings.
func (a *Appointment) DisplaySlot() string {
	return a.Date + " " + a.TimeSlot
}

// ListAppointmentsQuery filters the appointment list.
type ListAppointmentsQuery struct {
	Email    string
	Doctor   string
	Modality *schedule.Modality
}

func (q *ListAppointmentsQuery) Matches(a *Appointment) bool {
	if q.Email != "" && patient.NormalizedEmail(a.Email) != patient.NormalizedEmail(q.Email) {
		return false
	}
	if q.Doctor != "" && a.Doctor != q.Doctor {
		return false
	}
	if q.Modality != nil && a.Modality != *q.Modality {
		return false
	}
	return true
}
