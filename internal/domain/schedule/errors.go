package schedule

import "errors"

var (
	ErrSlotUnavailable   = errors.New("slot is no longer available")
	ErrUnknownDoctor     = errors.New("doctor has no slots for the requested modality")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotExists        = errors.New("slot already exists")
	ErrDoctorRequired    = errors.New("doctor is required")
	ErrMalformedSlot     = errors.New("malformed slot")
	ErrInvalidTransition = errors.New("invalid slot status transition")
)
