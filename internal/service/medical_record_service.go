package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RecordDetails is a medical record with both parties expanded.
type RecordDetails struct {
	*mr.MedicalRecord
	Patient domain.Contact
	Doctor  domain.Contact
}

type MedicalRecordService struct {
	repo         mr.Repository
	appointments appointment.Repository
	users        UserRepository
	auditor      Auditor
	metrics      *metrics.Collector
	log          *zap.Logger
	now          func() time.Time
}

func NewMedicalRecordService(
	repo mr.Repository,
	appointments appointment.Repository,
	users UserRepository,
	auditor Auditor,
	m *metrics.Collector,
	log *zap.Logger,
) *MedicalRecordService {
	return &MedicalRecordService{
		repo:         repo,
		appointments: appointments,
		users:        users,
		auditor:      auditor,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

func (s *MedicalRecordService) Create(ctx context.Context, p *access.Principal, cmd *mr.CreateRecordCommand, ip string) (*RecordDetails, error) {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionCreate); err != nil {
		return nil, err
	}
	if cmd.DoctorID == uuid.Nil && p.Role == access.RoleDoctor {
		cmd.DoctorID = p.UserID
	}

	var v validation
	v.add(cmd.PatientID == uuid.Nil, "patientId is required")
	v.add(cmd.DoctorID == uuid.Nil, "doctorId is required")
	v.add(strings.TrimSpace(cmd.VisitNotes) == "", "visitNotes is required")
	v.add(!validDocument(cmd.Prescriptions) || !validDocument(cmd.LabResults), mr.ErrInvalidDocument.Error())
	if err := v.err(); err != nil {
		return nil, err
	}

	// A doctor writes records under their own name only.
	if err := access.RequireOwner(p, access.ResourceMedicalRecord, access.ActionCreate, cmd.DoctorID); err != nil {
		return nil, err
	}

	parties, err := s.users.GetByIDs(ctx, []uuid.UUID{cmd.PatientID, cmd.DoctorID})
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	pat, doc := parties[cmd.PatientID], parties[cmd.DoctorID]
	v.add(pat == nil || pat.Role != access.RolePatient, "patientId must reference a patient")
	v.add(doc == nil || doc.Role != access.RoleDoctor, "doctorId must reference a doctor")
	if err := v.err(); err != nil {
		return nil, err
	}

	if cmd.AppointmentID != nil {
		a, err := s.appointments.GetByID(ctx, *cmd.AppointmentID)
		if err != nil {
			return nil, err
		}
		if a.PatientID != cmd.PatientID || a.DoctorID != cmd.DoctorID {
			return nil, invalid(mr.ErrAppointmentMatch.Error())
		}
	}

	visit := cmd.VisitDate
	if visit.IsZero() {
		visit = s.now().UTC()
	}

	r := &mr.MedicalRecord{
		PatientID:      cmd.PatientID,
		DoctorID:       cmd.DoctorID,
		AppointmentID:  cmd.AppointmentID,
		VisitDate:      visit,
		ChiefComplaint: cmd.ChiefComplaint,
		Diagnoses:      cmd.Diagnoses,
		TreatmentPlans: cmd.TreatmentPlans,
		Prescriptions:  datatypes.JSON(cmd.Prescriptions),
		LabResults:     datatypes.JSON(cmd.LabResults),
		Vitals:         cmd.Vitals,
		VisitNotes:     cmd.VisitNotes,
		FollowUpDate:   cmd.FollowUpDate,
		CreatedBy:      p.UserID,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.log.Error("failed to create medical record", zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordsCreatedTotal.Inc()
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourceMedicalRecord, r.ID, ip))

	return &RecordDetails{MedicalRecord: r, Patient: pat.Contact(), Doctor: doc.Contact()}, nil
}

func (s *MedicalRecordService) Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*RecordDetails, error) {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionRead); err != nil {
		return nil, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceMedicalRecord, access.ActionRead, r.PatientID, r.DoctorID); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionRead, access.ResourceMedicalRecord, r.ID, ip))
	return s.expand(ctx, r)
}

// Update applies a correction. Records are never edited silently: every
// change stores the previous values of the touched fields.
func (s *MedicalRecordService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *mr.UpdateRecordCommand, ip string) (*RecordDetails, error) {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionUpdate); err != nil {
		return nil, err
	}
	if !validDocument(cmd.Prescriptions) || !validDocument(cmd.LabResults) {
		return nil, invalid(mr.ErrInvalidDocument.Error())
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceMedicalRecord, access.ActionUpdate, r.DoctorID); err != nil {
		return nil, err
	}

	prev := cmd.Apply(r)
	if len(prev) == 0 {
		return s.expand(ctx, r)
	}

	fields := make([]string, 0, len(prev))
	for f := range prev {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	previous, err := json.Marshal(prev)
	if err != nil {
		return nil, fmt.Errorf("encoding correction: %w", err)
	}
	c := &mr.Correction{
		MedicalRecordID: r.ID,
		Fields:          fields,
		Previous:        datatypes.JSON(previous),
		CorrectedBy:     p.UserID,
	}
	if err := s.repo.Update(ctx, r, c); err != nil {
		return nil, err
	}

	entry := auditEntry(p, domain.ActionUpdate, access.ResourceMedicalRecord, r.ID, ip)
	entry.Changes = changedFields(fields)
	s.auditor.LogAsync(ctx, entry)

	return s.expand(ctx, r)
}

func (s *MedicalRecordService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) error {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionDelete, access.ResourceMedicalRecord, id, ip))
	return nil
}

// List requires admins to name the patient; patients and doctors are
// narrowed to their own records.
func (s *MedicalRecordService) List(ctx context.Context, p *access.Principal, q *mr.ListRecordsQuery) (*Page[RecordDetails], error) {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionRead); err != nil {
		return nil, err
	}

	if access.Scope(p, access.ResourceMedicalRecord) == access.ScopeAll {
		if q.PatientID == nil {
			return nil, invalid("patientId is required")
		}
	} else {
		self := p.UserID
		if p.Role == access.RoleDoctor {
			q.DoctorID = &self
		} else {
			q.PatientID, q.DoctorID = &self, nil
		}
	}

	res, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, 2*len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, r.PatientID, r.DoctorID)
	}
	people, err := contacts(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	items := make([]RecordDetails, 0, len(res.Records))
	for _, r := range res.Records {
		items = append(items, RecordDetails{MedicalRecord: r, Patient: people[r.PatientID], Doctor: people[r.DoctorID]})
	}
	return &Page[RecordDetails]{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}, nil
}

func (s *MedicalRecordService) Corrections(ctx context.Context, p *access.Principal, id uuid.UUID) ([]*mr.Correction, error) {
	if err := access.Require(p, access.ResourceMedicalRecord, access.ActionRead); err != nil {
		return nil, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceMedicalRecord, access.ActionRead, r.PatientID, r.DoctorID); err != nil {
		return nil, err
	}
	return s.repo.ListCorrections(ctx, r.ID)
}

func (s *MedicalRecordService) expand(ctx context.Context, r *mr.MedicalRecord) (*RecordDetails, error) {
	people, err := contacts(ctx, s.users, r.PatientID, r.DoctorID)
	if err != nil {
		return nil, err
	}
	return &RecordDetails{MedicalRecord: r, Patient: people[r.PatientID], Doctor: people[r.DoctorID]}, nil
}

func validDocument(raw json.RawMessage) bool {
	return len(raw) == 0 || json.Valid(raw)
}
