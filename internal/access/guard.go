package access

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden: insufficient permissions")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func Require(p *Principal, res Resource, act Action) error {
	if p == nil || p.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	if !Authorize(p.Role, res, act) {
		return ErrForbidden
	}
	return nil
}

// RequireOwner checks the policy and then that the principal is one of
// owners, unless its entry for res applies to any owner.
func RequireOwner(p *Principal, res Resource, act Action, owners ...uuid.UUID) error {
	if err := Require(p, res, act); err != nil {
		return err
	}
	if CanActOnAny(p, res) {
		return nil
	}
	if slices.Contains(owners, p.UserID) {
		return nil
	}
	return ErrForbidden
}

// CanActOnAny reports whether the principal's entry for res is not limited
// to records it owns.
func CanActOnAny(p *Principal, res Resource) bool {
	if p == nil {
		return false
	}
	perm, ok := lookup(p.Role, res)
	return ok && perm.AnyOwner
}

// RequireFields rejects an update touching a field outside the role's
// whitelist for res.
func RequireFields(p *Principal, res Resource, fields []string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	allowed := UpdatableFields(p.Role, res)
	if allowed == nil {
		return nil
	}
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return ErrForbidden
		}
	}
	return nil
}

type ListScope int

const (
	ScopeOwn ListScope = iota
	ScopeAll
)

// Scope tells list operations whether to filter results down to the
// principal's own records.
func Scope(p *Principal, res Resource) ListScope {
	if CanActOnAny(p, res) {
		return ScopeAll
	}
	return ScopeOwn
}
