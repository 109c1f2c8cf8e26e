package patient

import "errors"

var (
	ErrProfileNotFound    = errors.New("patient profile not found")
	ErrProfileExists      = errors.New("patient profile already exists")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrInvalidDateOfBirth = errors.New("date of birth cannot be in the future")
)
