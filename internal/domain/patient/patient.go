package patient

import (
	"strings"
	"time"
)

// VisitType classifies a booking as the patient's first contact or a repeat
// visit, derived from whether the email was previously seen.
type VisitType string

const (
	VisitNew       VisitType = "New"
	VisitReturning VisitType = "Returning"
)

// NotAssigned is the doctor placeholder for patients who registered without
// booking; it is replaced by the doctor of their first appointment.
const NotAssigned = "Not Assigned"

// Patient is one row of the patient store, keyed by email. Records are
// created at first booking or explicit registration and are never deleted,
// only updated.
type Patient struct {
	Name             string `json:"name"`
	DateOfBirth      string `json:"dob"` // DD-MM-YYYY, as entered
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Doctor           string `json:"doctor"`
	InsuranceCarrier string `json:"insurance_carrier"`
}

// NormalizedEmail is the store lookup key.
func NormalizedEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Patient) HasAssignedDoctor() bool {
	return p.Doctor != "" && p.Doctor != NotAssigned
}

// Age computes the patient's age from a DD-MM-YYYY date of birth; it returns
// -1 when the stored value does not parse.
func (p *Patient) Age() int {
	dob, err := time.Parse("02-01-2006", p.DateOfBirth)
	if err != nil {
		return -1
	}
	now := time.Now()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

type RegisterPatientCommand struct {
	Name        string
	Email       string
	Phone       string
	DateOfBirth string
}

type UpdatePatientCommand struct {
	Name             *string
	Phone            *string
	DateOfBirth      *string
	Doctor           *string
	InsuranceCarrier *string
}

// ListPatientsQuery filters the patient list for the admin dashboard.
type ListPatientsQuery struct {
	Search string // substring match on name or email
	Doctor string
}
