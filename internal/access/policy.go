package access

import "slices"

type Role string

const (
	RoleMember  Role = "MEMBER"
	RoleAdmin   Role = "ADMIN"
	RoleOwner   Role = "OWNER"
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner, RolePatient, RoleDoctor:
		return true
	}
	return false
}

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLeave  Action = "leave"
)

type Resource string

const (
	ResourceTeam           Resource = "team"
	ResourceTeamMember     Resource = "team_member"
	ResourceTeamInvitation Resource = "team_invitation"
	ResourceTeamSSO        Resource = "team_sso"
	ResourceTeamDSync      Resource = "team_dsync"
	ResourceTeamAuditLog   Resource = "team_audit_log"
	ResourceTeamWebhook    Resource = "team_webhook"
	ResourceTeamPayments   Resource = "team_payments"
	ResourceTeamAPIKey     Resource = "team_api_key"

	ResourceAppointment        Resource = "appointment"
	ResourceMedicalRecord      Resource = "medical_record"
	ResourceEducationalContent Resource = "educational_content"
	ResourcePatientProfile     Resource = "patient_profile"
	ResourceDoctorProfile      Resource = "doctor_profile"
	ResourcePayment            Resource = "payment"
	ResourceUser               Resource = "user"
)

// Permission grants a set of actions on one resource. A nil Actions slice is
// the wildcard. AnyOwner lifts the ownership restriction applied by
// RequireOwner; Fields, when set, limits which fields an update may touch.
type Permission struct {
	Resource Resource
	Actions  []Action
	AnyOwner bool
	Fields   []string
}

func (p Permission) Allows(act Action) bool {
	return p.Actions == nil || slices.Contains(p.Actions, act)
}

func wildcard(res Resource) Permission {
	return Permission{Resource: res, AnyOwner: true}
}

var teamResources = []Resource{
	ResourceTeam,
	ResourceTeamMember,
	ResourceTeamInvitation,
	ResourceTeamSSO,
	ResourceTeamDSync,
	ResourceTeamAuditLog,
	ResourceTeamWebhook,
	ResourceTeamPayments,
	ResourceTeamAPIKey,
}

var clinicResources = []Resource{
	ResourceAppointment,
	ResourceMedicalRecord,
	ResourceEducationalContent,
	ResourcePatientProfile,
	ResourceDoctorProfile,
	ResourcePayment,
	ResourceUser,
}

var policy = buildPolicy()

func buildPolicy() map[Role][]Permission {
	owner := make([]Permission, 0, len(teamResources))
	for _, res := range teamResources {
		owner = append(owner, wildcard(res))
	}

	admin := make([]Permission, 0, len(teamResources)+len(clinicResources))
	for _, res := range teamResources {
		if res == ResourceTeamPayments {
			continue
		}
		admin = append(admin, wildcard(res))
	}
	for _, res := range clinicResources {
		admin = append(admin, wildcard(res))
	}

	return map[Role][]Permission{
		RoleOwner: owner,
		RoleAdmin: admin,
		RoleMember: {
			{Resource: ResourceTeam, Actions: []Action{ActionRead, ActionLeave}},
		},
		RolePatient: {
			{
				Resource: ResourceAppointment,
				Actions:  []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete},
				Fields:   []string{"reason", "symptoms"},
			},
			{Resource: ResourceMedicalRecord, Actions: []Action{ActionRead}},
			{Resource: ResourceEducationalContent, Actions: []Action{ActionRead}, AnyOwner: true},
			{Resource: ResourcePatientProfile},
			{Resource: ResourceDoctorProfile, Actions: []Action{ActionRead}, AnyOwner: true},
			{Resource: ResourcePayment, Actions: []Action{ActionRead}},
		},
		RoleDoctor: {
			{Resource: ResourceAppointment, Actions: []Action{ActionRead, ActionUpdate}},
			{Resource: ResourceMedicalRecord, Actions: []Action{ActionCreate, ActionRead, ActionUpdate}},
			{Resource: ResourceEducationalContent, Actions: []Action{ActionCreate, ActionRead, ActionUpdate}},
			{Resource: ResourceDoctorProfile},
			{Resource: ResourcePatientProfile, Actions: []Action{ActionRead}, AnyOwner: true},
			{Resource: ResourcePayment, Actions: []Action{ActionRead}},
		},
	}
}

func lookup(role Role, res Resource) (Permission, bool) {
	for _, p := range policy[role] {
		if p.Resource == res {
			return p, true
		}
	}
	return Permission{}, false
}

// Authorize reports whether role may perform act on res. Unknown roles and
// resources without an entry are denied.
func Authorize(role Role, res Resource, act Action) bool {
	p, ok := lookup(role, res)
	return ok && p.Allows(act)
}

// Permissions returns a copy of the entries granted to role.
func Permissions(role Role) []Permission {
	return slices.Clone(policy[role])
}

// UpdatableFields returns the fields role may change on res, or nil when the
// role is not restricted.
func UpdatableFields(role Role, res Resource) []string {
	p, ok := lookup(role, res)
	if !ok {
		return nil
	}
	return p.Fields
}
