package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePatients struct {
	byUser map[uuid.UUID]*patient.Profile
}

func (f *fakePatients) Create(_ context.Context, p *patient.Profile) error {
	if _, ok := f.byUser[p.UserID]; ok {
		return patient.ErrProfileExists
	}
	p.ID = uuid.New()
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakePatients) GetByUserID(_ context.Context, userID uuid.UUID) (*patient.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, patient.ErrProfileNotFound
}

func (f *fakePatients) Save(_ context.Context, p *patient.Profile) error {
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakePatients) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	if _, ok := f.byUser[userID]; !ok {
		return patient.ErrProfileNotFound
	}
	delete(f.byUser, userID)
	return nil
}

func TestPatientProfileLifecycle(t *testing.T) {
	users := newFakeUsers()
	repo := &fakePatients{byUser: make(map[uuid.UUID]*patient.Profile)}
	svc := NewPatientProfileService(repo, users, &fakeAuditor{}, zap.NewNop())
	ctx := context.Background()

	pat := users.add(access.RolePatient, "pat")
	doc := users.add(access.RoleDoctor, "dana")
	other := users.add(access.RolePatient, "omar")

	phone := "555-0100"
	blood := patient.BloodTypeOPos
	created, err := svc.Create(ctx, principal(pat), pat.ID, &patient.ProfileCommand{Phone: &phone, BloodType: &blood, Allergies: []string{"penicillin"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", created.Phone)

	_, err = svc.Create(ctx, principal(pat), pat.ID, &patient.ProfileCommand{}, "")
	assert.ErrorIs(t, err, patient.ErrProfileExists)

	_, err = svc.Get(ctx, principal(other), pat.ID, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	got, err := svc.Get(ctx, principal(doc), pat.ID, "")
	require.NoError(t, err, "doctors read any patient profile")
	assert.Equal(t, []string{"penicillin"}, got.Allergies)

	_, err = svc.Update(ctx, principal(doc), pat.ID, &patient.ProfileCommand{Phone: &phone}, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	future := time.Now().AddDate(1, 0, 0)
	_, err = svc.Update(ctx, principal(pat), pat.ID, &patient.ProfileCommand{DateOfBirth: &future}, "")
	assert.ErrorIs(t, err, patient.ErrInvalidDateOfBirth)

	admin := users.add(access.RoleAdmin, "ada")
	_, err = svc.Create(ctx, principal(admin), doc.ID, &patient.ProfileCommand{}, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr, "profile must belong to a patient")

	require.NoError(t, svc.Delete(ctx, principal(pat), pat.ID, ""))
	_, err = svc.Get(ctx, principal(pat), pat.ID, "")
	assert.ErrorIs(t, err, patient.ErrProfileNotFound)
}

func TestDoctorProfileLifecycle(t *testing.T) {
	users := newFakeUsers()
	repo := newFakeDoctors()
	svc := NewDoctorProfileService(repo, users, &fakeAuditor{}, zap.NewNop())
	ctx := context.Background()

	doc := users.add(access.RoleDoctor, "dana")
	other := users.add(access.RoleDoctor, "sam")

	_, err := svc.Create(ctx, principal(doc), doc.ID, &doctor.ProfileCommand{}, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr, "specialty is required")

	specialty := "Cardiology"
	fee := int64(7500)
	created, err := svc.Create(ctx, principal(doc), doc.ID, &doctor.ProfileCommand{Specialty: &specialty, ConsultationFee: &fee}, "")
	require.NoError(t, err)
	assert.True(t, created.IsAcceptingPatients)
	assert.Equal(t, "dana@example.com", created.Doctor.Email)

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), got.ConsultationFee)

	closed := false
	_, err = svc.Update(ctx, principal(other), doc.ID, &doctor.ProfileCommand{IsAcceptingPatients: &closed}, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	negative := int64(-1)
	_, err = svc.Update(ctx, principal(doc), doc.ID, &doctor.ProfileCommand{ConsultationFee: &negative}, "")
	assert.ErrorIs(t, err, doctor.ErrInvalidProfile)

	got, err = svc.Update(ctx, principal(doc), doc.ID, &doctor.ProfileCommand{IsAcceptingPatients: &closed}, "")
	require.NoError(t, err)
	assert.False(t, got.IsAcceptingPatients)

	page, err := svc.List(ctx, &doctor.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dana Test", page.Items[0].Doctor.Name)

	pat := users.add(access.RolePatient, "pat")
	assert.ErrorIs(t, svc.Delete(ctx, principal(pat), doc.ID, ""), access.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, principal(users.add(access.RoleAdmin, "ada")), doc.ID, ""))
}
