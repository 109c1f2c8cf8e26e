package doctor

import "errors"

var (
	ErrProfileNotFound = errors.New("doctor profile not found")
	ErrProfileExists   = errors.New("doctor profile already exists")
	ErrInvalidProfile  = errors.New("invalid doctor profile")
)
