package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error categories returned in the "code" field.
const (
	CodeValidation       = "VALIDATION"
	CodeUnauthenticated  = middleware.CodeUnauthenticated
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = middleware.CodeRateLimited
	CodeInternal         = middleware.CodeInternal
)

const dateLayout = "2006-01-02"

type APIResponse[T any] struct {
	Data T `json:"data"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   CodeValidation,
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, mr.ErrRecordNotFound),
		errors.Is(err, patient.ErrProfileNotFound),
		errors.Is(err, doctor.ErrProfileNotFound),
		errors.Is(err, content.ErrContentNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err.Error())

	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, appointment.ErrAppointmentConflict),
		errors.Is(err, appointment.ErrDoctorUnavailable),
		errors.Is(err, patient.ErrProfileExists),
		errors.Is(err, doctor.ErrProfileExists),
		errors.Is(err, content.ErrSlugTaken),
		errors.Is(err, payment.ErrPaymentExists):
		respondError(c, http.StatusConflict, CodeConflict, err.Error())

	case errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidAppointmentType),
		errors.Is(err, appointment.ErrInvalidStartTime),
		errors.Is(err, mr.ErrInvalidDocument),
		errors.Is(err, mr.ErrAppointmentMatch),
		errors.Is(err, patient.ErrInvalidBloodType),
		errors.Is(err, patient.ErrInvalidDateOfBirth),
		errors.Is(err, doctor.ErrInvalidProfile),
		errors.Is(err, content.ErrInvalidSlug),
		errors.Is(err, payment.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrMFANotEnrolled):
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())

	case errors.Is(err, access.ErrForbidden):
		respondError(c, http.StatusForbidden, CodeForbidden, "access denied")

	case errors.Is(err, service.ErrAccountInactive):
		respondError(c, http.StatusForbidden, CodeForbidden, err.Error())

	case errors.Is(err, access.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, CodeUnauthenticated, "authentication required")

	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, CodeUnauthenticated, "invalid credentials")

	case errors.Is(err, service.ErrMFARequired),
		errors.Is(err, service.ErrInvalidMFACode):
		respondError(c, http.StatusUnauthorized, CodeUnauthenticated, err.Error())

	case errors.Is(err, service.ErrAccountLocked):
		respondError(c, http.StatusTooManyRequests, CodeRateLimited, "account temporarily locked")

	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "invalid request: "+err.Error())
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalUUID reads an optional uuid query parameter.
func parseOptionalUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "invalid "+key+": must be a valid UUID")
		return nil, false
	}
	return &id, true
}

func parseOptionalDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := parseDate(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "invalid "+key+": use YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	return &d, true
}

var dateLayouts = []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseDate accepts a calendar date, a local date-time or an RFC 3339
// timestamp.
func parseDate(raw string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func parseQueryBool(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// principal is the authenticated caller, or nil on public routes.
func principal(c *gin.Context) *access.Principal {
	return middleware.PrincipalFrom(c)
}

// targetUser resolves the user a /profile route acts on: the caller, unless
// a userId query parameter names someone else.
func targetUser(c *gin.Context) (uuid.UUID, bool) {
	p := principal(c)
	id, ok := parseOptionalUUID(c, "userId")
	if !ok {
		return uuid.Nil, false
	}
	if id != nil {
		return *id, true
	}
	return p.UserID, true
}
