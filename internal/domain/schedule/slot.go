package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Modality classifies a slot or appointment as an in-person or video consult.
// The two modalities live in independently maintained slot tables.
type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVideo    Modality = "video"
)

func (m Modality) IsValid() bool {
	switch m {
	case ModalityInPerson, ModalityVideo:
		return true
	}
	return false
}

// Display returns the modality label used in patient-facing text and the
// appointment store's consult_type column.
func (m Modality) Display() string {
	if m == ModalityVideo {
		return "Video"
	}
	return "In-person"
}

// ParseModality accepts both the API values and the legacy display labels.
func ParseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_person", "in-person", "inperson", "":
		return ModalityInPerson, nil
	case "video":
		return ModalityVideo, nil
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

// State transitions possibilities:
//
//	available → booked → (available | blocked)
//	available → blocked → available
//
// Slots are perpetually recyclable; no terminal state.
type SlotStatus string

const (
	StatusAvailable SlotStatus = "Available"
	StatusBooked    SlotStatus = "Booked"
	StatusBlocked   SlotStatus = "Blocked"
)

func (s SlotStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusBlocked:
		return true
	}
	return false
}

// ParseSlotStatus maps store values to a status. The legacy video-schedule
// table used "Unavailable" where the in-person table used "Blocked"; both
// load as Blocked.
func ParseSlotStatus(s string) (SlotStatus, error) {
	switch strings.TrimSpace(s) {
	case "Available":
		return StatusAvailable, nil
	case "Booked":
		return StatusBooked, nil
	case "Blocked", "Unavailable":
		return StatusBlocked, nil
	}
	return "", fmt.Errorf("unknown slot status %q", s)
}

// SlotKey is the stable identity of one bookable unit of schedule.
// Appointments reference slots by this key, never by a display string.
type SlotKey struct {
	Doctor   string   `json:"doctor"`
	Date     string   `json:"date"`      // YYYY-MM-DD
	TimeSlot string   `json:"time_slot"` // HH:MM
	Modality Modality `json:"modality"`
}

// DisplaySlot is the "<date> <time>" string the legacy portal showed and
// mailed to patients. Kept for presentation only.
func (k SlotKey) DisplaySlot() string {
	return k.Date + " " + k.TimeSlot
}

func (k SlotKey) Validate() error {
	if strings.TrimSpace(k.Doctor) == "" {
		return ErrDoctorRequired
	}
	if _, err := time.Parse("2006-01-02", k.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrMalformedSlot, k.Date)
	}
	if _, err := time.Parse("15:04", k.TimeSlot); err != nil {
		return fmt.Errorf("%w: time_slot %q", ErrMalformedSlot, k.TimeSlot)
	}
	if !k.Modality.IsValid() {
		return fmt.Errorf("%w: modality %q", ErrMalformedSlot, k.Modality)
	}
	return nil
}

// Slot is one row of a schedule table.
type Slot struct {
	Doctor   string     `json:"doctor"`
	Date     string     `json:"date"`
	TimeSlot string     `json:"time_slot"`
	Status   SlotStatus `json:"status"`
	Modality Modality   `json:"modality"`
}

func (s *Slot) Key() SlotKey {
	return SlotKey{Doctor: s.Doctor, Date: s.Date, TimeSlot: s.TimeSlot, Modality: s.Modality}
}

func (s *Slot) CanTransitionTo(next SlotStatus) bool {
	allowed := map[SlotStatus][]SlotStatus{
		StatusAvailable: {StatusBooked, StatusBlocked},
		StatusBooked:    {StatusAvailable, StatusBlocked},
		StatusBlocked:   {StatusAvailable},
	}
	for _, n := range allowed[s.Status] {
		if n == next {
			return true
		}
	}
	return false
}

// Book claims an Available slot. Any other current status fails with
// ErrSlotUnavailable so a racing caller sees a clean conflict.
func (s *Slot) Book() error {
	if s.Status != StatusAvailable {
		return ErrSlotUnavailable
	}
	s.Status = StatusBooked
	return nil
}

// Release reverts a slot to Available, used on cancellation and
// administrative unblock.
func (s *Slot) Release() {
	s.Status = StatusAvailable
}

// StartTime resolves the slot's date and time into a time.Time, used for
// chronological ordering of availability listings.
func (s *Slot) StartTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", s.Date+" "+s.TimeSlot)
}

// AddSlotCommand creates a single slot, status Available.
type AddSlotCommand struct {
	Doctor   string
	Date     string
	TimeSlot string
	Modality Modality
}

// GenerateScheduleCommand bulk-creates Available slots for one doctor over a
// date range crossed with a list of times. Existing keys are skipped.
type GenerateScheduleCommand struct {
	Doctor    string
	StartDate string
	EndDate   string
	TimeSlots []string
	Modality  Modality
}

// SetSlotStatusCommand is the administrative status override.
type SetSlotStatusCommand struct {
	Key    SlotKey
	Status SlotStatus
}

// Stats summarizes one modality's table for the admin dashboard.
type Stats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Booked    int `json:"booked"`
	Blocked   int `json:"blocked"`
}
