package service

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/notify"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	byID map[uuid.UUID]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUsers) add(role access.Role, first string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	u := &domain.User{
		ID:           uuid.New(),
		Email:        first + "@example.com",
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     "Test",
		Role:         role,
		IsActive:     true,
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	out := make(map[uuid.UUID]*domain.User)
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) RecordLoginAttempt(_ context.Context, id uuid.UUID, success bool, lockUntil *time.Time) error {
	u := f.byID[id]
	if success {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		now := time.Now()
		u.LastLoginAt = &now
		return nil
	}
	u.FailedLoginCount++
	if lockUntil != nil {
		u.LockedUntil = lockUntil
	}
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdateMFA(_ context.Context, id uuid.UUID, enabled bool, secret string) error {
	u := f.byID[id]
	u.MFAEnabled = enabled
	u.MFASecret = secret
	return nil
}

type fakeAppointments struct {
	byID    map[uuid.UUID]*appointment.Appointment
	creates int
	saves   int
	marked  []uuid.UUID
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{byID: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	f.creates++
	a.ID = uuid.New()
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

// GetByID hands out a copy so unsaved changes never leak into the store.
func (f *fakeAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointments) Save(_ context.Context, a *appointment.Appointment) error {
	f.saves++
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAppointments) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	var items []*appointment.Appointment
	for _, a := range f.byID {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   int64(len(items)),
		Page:         1,
		PageSize:     20,
		TotalPages:   1,
	}, nil
}

func (f *fakeAppointments) ListForDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*appointment.Appointment, error) {
	from, to = appointment.DateOnly(from), appointment.DateOnly(to)
	var out []*appointment.Appointment
	for _, a := range f.byID {
		d := appointment.DateOnly(a.Date)
		if a.DoctorID != doctorID || d.Before(from) || d.After(to) || a.Status == appointment.StatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointments) ListDueReminders(_ context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range f.byID {
		if a.ReminderSentAt != nil || a.Status.IsTerminal() {
			continue
		}
		d := appointment.DateOnly(a.Date)
		if d.Before(appointment.DateOnly(from)) || d.After(appointment.DateOnly(to)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointments) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.marked = append(f.marked, id)
	f.byID[id].ReminderSentAt = &at
	return nil
}

type fakeDoctors struct {
	byUser map[uuid.UUID]*doctor.Profile
}

func newFakeDoctors() *fakeDoctors {
	return &fakeDoctors{byUser: make(map[uuid.UUID]*doctor.Profile)}
}

func (f *fakeDoctors) Create(_ context.Context, p *doctor.Profile) error {
	if _, ok := f.byUser[p.UserID]; ok {
		return doctor.ErrProfileExists
	}
	p.ID = uuid.New()
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeDoctors) GetByUserID(_ context.Context, userID uuid.UUID) (*doctor.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, doctor.ErrProfileNotFound
}

func (f *fakeDoctors) Save(_ context.Context, p *doctor.Profile) error {
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeDoctors) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	if _, ok := f.byUser[userID]; !ok {
		return doctor.ErrProfileNotFound
	}
	delete(f.byUser, userID)
	return nil
}

func (f *fakeDoctors) List(_ context.Context, _ *doctor.ListQuery) (*doctor.PagedProfiles, error) {
	var out []*doctor.Profile
	for _, p := range f.byUser {
		out = append(out, p)
	}
	return &doctor.PagedProfiles{Profiles: out, TotalCount: int64(len(out)), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

type fakePayments struct {
	byID map[uuid.UUID]*payment.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{byID: make(map[uuid.UUID]*payment.Payment)}
}

func (f *fakePayments) Create(_ context.Context, p *payment.Payment) error {
	for _, existing := range f.byID {
		if existing.AppointmentID == p.AppointmentID {
			return payment.ErrPaymentExists
		}
	}
	p.ID = uuid.New()
	f.byID[p.ID] = p
	return nil
}

func (f *fakePayments) GetByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, payment.ErrPaymentNotFound
}

func (f *fakePayments) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*payment.Payment, error) {
	for _, p := range f.byID {
		if p.AppointmentID == appointmentID {
			return p, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (f *fakePayments) Save(_ context.Context, p *payment.Payment) error {
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePayments) List(_ context.Context, q *payment.ListPaymentsQuery) (*payment.PagedPayments, error) {
	var out []*payment.Payment
	for _, p := range f.byID {
		if q.UserID != nil && p.UserID != *q.UserID {
			continue
		}
		if q.DoctorID != nil && p.DoctorID != *q.DoctorID {
			continue
		}
		out = append(out, p)
	}
	return &payment.PagedPayments{Payments: out, TotalCount: int64(len(out)), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

type fakeRecords struct {
	byID        map[uuid.UUID]*mr.MedicalRecord
	corrections []*mr.Correction
	lastQuery   *mr.ListRecordsQuery
	updates     int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{byID: make(map[uuid.UUID]*mr.MedicalRecord)}
}

func (f *fakeRecords) Create(_ context.Context, r *mr.MedicalRecord) error {
	r.ID = uuid.New()
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeRecords) GetByID(_ context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, mr.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecords) Update(_ context.Context, r *mr.MedicalRecord, c *mr.Correction) error {
	f.updates++
	cp := *r
	f.byID[r.ID] = &cp
	f.corrections = append(f.corrections, c)
	return nil
}

func (f *fakeRecords) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return mr.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRecords) List(_ context.Context, q *mr.ListRecordsQuery) (*mr.PagedRecords, error) {
	f.lastQuery = q
	var out []*mr.MedicalRecord
	for _, r := range f.byID {
		if q.PatientID != nil && r.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && r.DoctorID != *q.DoctorID {
			continue
		}
		out = append(out, r)
	}
	return &mr.PagedRecords{Records: out, TotalCount: int64(len(out)), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakeRecords) ListCorrections(_ context.Context, recordID uuid.UUID) ([]*mr.Correction, error) {
	var out []*mr.Correction
	for _, c := range f.corrections {
		if c.MedicalRecordID == recordID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeContent struct {
	byID      map[uuid.UUID]*content.Content
	lastQuery *content.ListContentQuery
}

func newFakeContent() *fakeContent {
	return &fakeContent{byID: make(map[uuid.UUID]*content.Content)}
}

func (f *fakeContent) Create(_ context.Context, c *content.Content) error {
	c.ID = uuid.New()
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeContent) GetByID(_ context.Context, id uuid.UUID) (*content.Content, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, content.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContent) GetBySlug(_ context.Context, slug string) (*content.Content, error) {
	for _, c := range f.byID {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, content.ErrContentNotFound
}

func (f *fakeContent) Save(_ context.Context, c *content.Content) error {
	cp := *c
	cp.Views = f.byID[c.ID].Views
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeContent) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return content.ErrContentNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeContent) List(_ context.Context, q *content.ListContentQuery) (*content.PagedContent, error) {
	f.lastQuery = q
	var out []*content.Content
	for _, c := range f.byID {
		if q.Published != nil && c.Published != *q.Published {
			continue
		}
		if q.AuthorID != nil && c.AuthorID != *q.AuthorID {
			continue
		}
		out = append(out, c)
	}
	return &content.PagedContent{Items: out, TotalCount: int64(len(out)), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakeContent) SlugExists(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	for _, c := range f.byID {
		if c.Slug == slug && (excludeID == nil || c.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContent) IncrementViews(_ context.Context, id uuid.UUID) (int64, error) {
	c, ok := f.byID[id]
	if !ok {
		return 0, content.ErrContentNotFound
	}
	c.Views++
	return c.Views, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (f *fakeDispatcher) Dispatch(_ context.Context, n notify.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (f *fakeAuditor) LogAsync(_ context.Context, e AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func principal(u *domain.User) *access.Principal {
	return &access.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}
