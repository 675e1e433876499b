package appointment

import "errors"

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrInvalidPatientRecord = errors.New("patient record is missing required identity fields")
)
