package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientProfileService struct {
	repo    patient.Repository
	users   UserRepository
	auditor Auditor
	log     *zap.Logger
	now     func() time.Time
}

func NewPatientProfileService(repo patient.Repository, users UserRepository, auditor Auditor, log *zap.Logger) *PatientProfileService {
	return &PatientProfileService{repo: repo, users: users, auditor: auditor, log: log, now: time.Now}
}

func (s *PatientProfileService) Get(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) (*patient.Profile, error) {
	if err := access.RequireOwner(p, access.ResourcePatientProfile, access.ActionRead, userID); err != nil {
		return nil, err
	}
	prof, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionRead, access.ResourcePatientProfile, prof.ID, ip))
	return prof, nil
}

func (s *PatientProfileService) Create(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *patient.ProfileCommand, ip string) (*patient.Profile, error) {
	if err := access.RequireOwner(p, access.ResourcePatientProfile, access.ActionCreate, userID); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, s.users, userID, access.RolePatient); err != nil {
		return nil, err
	}
	if err := cmd.Validate(s.now()); err != nil {
		return nil, err
	}

	prof := &patient.Profile{UserID: userID}
	cmd.Apply(prof)
	if err := s.repo.Create(ctx, prof); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourcePatientProfile, prof.ID, ip))
	return prof, nil
}

func (s *PatientProfileService) Update(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *patient.ProfileCommand, ip string) (*patient.Profile, error) {
	if err := access.RequireOwner(p, access.ResourcePatientProfile, access.ActionUpdate, userID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(s.now()); err != nil {
		return nil, err
	}

	prof, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cmd.Apply(prof)
	if err := s.repo.Save(ctx, prof); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionUpdate, access.ResourcePatientProfile, prof.ID, ip))
	return prof, nil
}

func (s *PatientProfileService) Delete(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) error {
	if err := access.RequireOwner(p, access.ResourcePatientProfile, access.ActionDelete, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionDelete, access.ResourcePatientProfile, userID, ip))
	return nil
}

// DoctorDetails is a doctor profile with the doctor's contact card.
type DoctorDetails struct {
	*doctor.Profile
	Doctor domain.Contact
}

type DoctorProfileService struct {
	repo    doctor.Repository
	users   UserRepository
	auditor Auditor
	log     *zap.Logger
}

func NewDoctorProfileService(repo doctor.Repository, users UserRepository, auditor Auditor, log *zap.Logger) *DoctorProfileService {
	return &DoctorProfileService{repo: repo, users: users, auditor: auditor, log: log}
}

// Get is public.
func (s *DoctorProfileService) Get(ctx context.Context, userID uuid.UUID) (*DoctorDetails, error) {
	prof, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, prof)
}

// List is public.
func (s *DoctorProfileService) List(ctx context.Context, q *doctor.ListQuery) (*Page[DoctorDetails], error) {
	res, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(res.Profiles))
	for _, prof := range res.Profiles {
		ids = append(ids, prof.UserID)
	}
	people, err := contacts(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	items := make([]DoctorDetails, 0, len(res.Profiles))
	for _, prof := range res.Profiles {
		items = append(items, DoctorDetails{Profile: prof, Doctor: people[prof.UserID]})
	}
	return &Page[DoctorDetails]{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}, nil
}

func (s *DoctorProfileService) Create(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *doctor.ProfileCommand, ip string) (*DoctorDetails, error) {
	if err := access.RequireOwner(p, access.ResourceDoctorProfile, access.ActionCreate, userID); err != nil {
		return nil, err
	}
	if cmd.Specialty == nil || *cmd.Specialty == "" {
		return nil, invalid("specialty is required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, s.users, userID, access.RoleDoctor); err != nil {
		return nil, err
	}

	prof := &doctor.Profile{UserID: userID, IsAcceptingPatients: true}
	cmd.Apply(prof)
	if err := s.repo.Create(ctx, prof); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourceDoctorProfile, prof.ID, ip))
	return s.expand(ctx, prof)
}

func (s *DoctorProfileService) Update(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *doctor.ProfileCommand, ip string) (*DoctorDetails, error) {
	if err := access.RequireOwner(p, access.ResourceDoctorProfile, access.ActionUpdate, userID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	prof, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cmd.Apply(prof)
	if err := s.repo.Save(ctx, prof); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionUpdate, access.ResourceDoctorProfile, prof.ID, ip))
	return s.expand(ctx, prof)
}

func (s *DoctorProfileService) Delete(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) error {
	if err := access.RequireOwner(p, access.ResourceDoctorProfile, access.ActionDelete, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionDelete, access.ResourceDoctorProfile, userID, ip))
	return nil
}

func (s *DoctorProfileService) expand(ctx context.Context, prof *doctor.Profile) (*DoctorDetails, error) {
	people, err := contacts(ctx, s.users, prof.UserID)
	if err != nil {
		return nil, err
	}
	return &DoctorDetails{Profile: prof, Doctor: people[prof.UserID]}, nil
}

// requireRole checks a profile is being attached to a user of the matching
// role.
func requireRole(ctx context.Context, users UserRepository, userID uuid.UUID, role access.Role) error {
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != role {
		return invalid("user must have the " + string(role) + " role")
	}
	return nil
}
