package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("patient with this email already exists")
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidEmail         = errors.New("email address is not valid")
	ErrNameRequired         = errors.New("name is required")
)
