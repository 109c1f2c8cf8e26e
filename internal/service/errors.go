package service

import (
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrMFARequired        = errors.New("a one-time code is required for this account")
	ErrInvalidMFACode     = errors.New("invalid one-time code")
	ErrMFANotEnrolled     = errors.New("mfa enrollment has not been started")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// validation collects field problems; err returns nil when there are none.
type validation []string

func (v *validation) add(cond bool, msg string) {
	if cond {
		*v = append(*v, msg)
	}
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

func invalid(msg string) error {
	return &ValidationError{Fields: []string{msg}}
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     access.Role
	Action       domain.AuditAction
	ResourceType access.Resource
	ResourceID   string
	IPAddress    string
	Changes      string
}

func auditEntry(p *access.Principal, action domain.AuditAction, res access.Resource, id uuid.UUID, ip string) AuditEntry {
	e := AuditEntry{
		Action:       action,
		ResourceType: res,
		ResourceID:   id.String(),
		IPAddress:    ip,
	}
	if p != nil {
		e.UserID = p.UserID
		e.UserRole = p.Role
	}
	return e
}
