package medical_record

import "errors"

var (
	ErrRecordNotFound   = errors.New("medical record not found")
	ErrInvalidDocument  = errors.New("prescriptions and lab results must be valid JSON")
	ErrAppointmentMatch = errors.New("appointment does not belong to this patient and doctor")
)
