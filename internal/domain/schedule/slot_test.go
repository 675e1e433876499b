package schedule

import (
	"errors"
	"testing"
)

func TestParseSlotStatus(t *testing.T) {
	tests := []struct {
		in   string
		want SlotStatus
	}{
		{"Available", StatusAvailable},
		{"Booked", StatusBooked},
		{"Blocked", StatusBlocked},
		{"Unavailable", StatusBlocked}, // legacy video-schedule label
		{" Available ", StatusAvailable},
	}
	for _, tt := range tests {
		got, err := ParseSlotStatus(tt.in)
		if err != nil {
			t.Errorf("ParseSlotStatus(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSlotStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSlotStatus("Cancelled"); err == nil {
		t.Error("ParseSlotStatus accepted an unknown label")
	}
}

func TestParseModality(t *testing.T) {
	tests := []struct {
		in   string
		want Modality
	}{
		{"in_person", ModalityInPerson},
		{"In-Person", ModalityInPerson},
		{"video", ModalityVideo},
		{"Video", ModalityVideo},
		{"", ModalityInPerson},
	}
	for _, tt := range tests {
		got, err := ParseModality(tt.in)
		if err != nil {
			t.Errorf("ParseModality(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModality(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseModality("phone"); err == nil {
		t.Error("ParseModality accepted an unknown modality")
	}
}

func TestSlotTransitions(t *testing.T) {
	tests := []struct {
		from, to SlotStatus
		ok       bool
	}{
		{StatusAvailable, StatusBooked, true},
		{StatusAvailable, StatusBlocked, true},
		{StatusBooked, StatusAvailable, true},
		{StatusBooked, StatusBlocked, true},
		{StatusBlocked, StatusAvailable, true},
		{StatusBlocked, StatusBooked, false},
	}
	for _, tt := range tests {
		s := Slot{Status: tt.from}
		if got := s.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("CanTransitionTo(%s -> %s) = %t, want %t", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestBookOnlyClaimsAvailable(t *testing.T) {
	s := Slot{Status: StatusAvailable}
	if err := s.Book(); err != nil {
		t.Fatalf("Book on Available: %v", err)
	}
	if s.Status != StatusBooked {
		t.Fatalf("status after Book = %s, want Booked", s.Status)
	}

	if err := s.Book(); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Book on Booked = %v, want ErrSlotUnavailable", err)
	}

	s.Status = StatusBlocked
	if err := s.Book(); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Book on Blocked = %v, want ErrSlotUnavailable", err)
	}

	s.Release()
	if s.Status != StatusAvailable {
		t.Fatalf("status after Release = %s, want Available", s.Status)
	}
}

func TestSlotKeyValidate(t *testing.T) {
	valid := SlotKey{Doctor: "Smith", Date: "2026-09-01", TimeSlot: "09:00", Modality: ModalityInPerson}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate on valid key: %v", err)
	}

	tests := []struct {
		name string
		key  SlotKey
		want error
	}{
		{"missing doctor", SlotKey{Date: "2026-09-01", TimeSlot: "09:00", Modality: ModalityInPerson}, ErrDoctorRequired},
		{"bad date", SlotKey{Doctor: "Smith", Date: "01/09/2026", TimeSlot: "09:00", Modality: ModalityInPerson}, ErrMalformedSlot},
		{"bad time", SlotKey{Doctor: "Smith", Date: "2026-09-01", TimeSlot: "9am", Modality: ModalityInPerson}, ErrMalformedSlot},
		{"bad modality", SlotKey{Doctor: "Smith", Date: "2026-09-01", TimeSlot: "09:00", Modality: "phone"}, ErrMalformedSlot},
	}
	for _, tt := range tests {
		if err := tt.key.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: Validate() = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestStartTimeOrdering(t *testing.T) {
	early := Slot{Date: "2026-09-01", TimeSlot: "09:00"}
	late := Slot{Date: "2026-09-01", TimeSlot: "14:30"}

	a, err := early.StartTime()
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}
	b, err := late.StartTime()
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}
	if !a.Before(b) {
		t.Errorf("expected %s before %s", a, b)
	}
}
