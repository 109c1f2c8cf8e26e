package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordFixture struct {
	svc     *MedicalRecordService
	records *fakeRecords
	appts   *fakeAppointments
	users   *fakeUsers
	metrics *metrics.Collector

	patient *domain.User
	doctor  *domain.User
	admin   *domain.User
}

func newRecordFixture(t *testing.T) *recordFixture {
	t.Helper()
	f := &recordFixture{
		records: newFakeRecords(),
		appts:   newFakeAppointments(),
		users:   newFakeUsers(),
		metrics: metrics.NewCollector("test", prometheus.NewRegistry()),
	}
	f.patient = f.users.add(access.RolePatient, "pat")
	f.doctor = f.users.add(access.RoleDoctor, "dana")
	f.admin = f.users.add(access.RoleAdmin, "ada")
	f.svc = NewMedicalRecordService(f.records, f.appts, f.users, &fakeAuditor{}, f.metrics, zap.NewNop())
	return f
}

func (f *recordFixture) create(t *testing.T) *RecordDetails {
	t.Helper()
	r, err := f.svc.Create(context.Background(), principal(f.doctor), &mr.CreateRecordCommand{
		PatientID:      f.patient.ID,
		VisitDate:      visitDay,
		ChiefComplaint: "chest pain",
		Diagnoses:      []string{"angina"},
		Prescriptions:  json.RawMessage(`[{"drug":"aspirin","dose":"81mg"}]`),
		VisitNotes:     "stable",
	}, "")
	require.NoError(t, err)
	return r
}

func TestCreateRecordDefaultsDoctorToCaller(t *testing.T) {
	f := newRecordFixture(t)

	r := f.create(t)

	assert.Equal(t, f.doctor.ID, r.DoctorID)
	assert.Equal(t, f.doctor.ID, r.CreatedBy)
	assert.Equal(t, "pat@example.com", r.Patient.Email)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsCreatedTotal))
}

func TestCreateRecordRejections(t *testing.T) {
	f := newRecordFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, principal(f.patient), &mr.CreateRecordCommand{PatientID: f.patient.ID, DoctorID: f.doctor.ID, VisitNotes: "x"}, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	other := f.users.add(access.RoleDoctor, "sam")
	_, err = f.svc.Create(ctx, principal(f.doctor), &mr.CreateRecordCommand{PatientID: f.patient.ID, DoctorID: other.ID, VisitNotes: "x"}, "")
	assert.ErrorIs(t, err, access.ErrForbidden, "doctors write under their own name")

	var verr *ValidationError
	_, err = f.svc.Create(ctx, principal(f.doctor), &mr.CreateRecordCommand{PatientID: f.patient.ID, VisitNotes: "x", LabResults: json.RawMessage(`{bad`)}, "")
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.Create(ctx, principal(f.doctor), &mr.CreateRecordCommand{PatientID: f.patient.ID}, "")
	assert.ErrorAs(t, err, &verr)

	a := &appointment.Appointment{PatientID: other.ID, DoctorID: f.doctor.ID}
	require.NoError(t, f.appts.Create(ctx, a))
	_, err = f.svc.Create(ctx, principal(f.doctor), &mr.CreateRecordCommand{PatientID: f.patient.ID, AppointmentID: &a.ID, VisitNotes: "x"}, "")
	assert.ErrorAs(t, err, &verr)

	assert.Empty(t, f.records.byID)
}

func TestRecordReadAccess(t *testing.T) {
	f := newRecordFixture(t)
	r := f.create(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, principal(f.patient), r.ID, "")
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, principal(f.admin), r.ID, "")
	assert.NoError(t, err)

	stranger := f.users.add(access.RolePatient, "omar")
	_, err = f.svc.Get(ctx, principal(stranger), r.ID, "")
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestUpdateRecordStoresCorrection(t *testing.T) {
	f := newRecordFixture(t)
	r := f.create(t)
	ctx := context.Background()

	notes := "improving"
	_, err := f.svc.Update(ctx, principal(f.patient), r.ID, &mr.UpdateRecordCommand{VisitNotes: &notes}, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	complaint := "shortness of breath"
	got, err := f.svc.Update(ctx, principal(f.doctor), r.ID, &mr.UpdateRecordCommand{
		VisitNotes:     &notes,
		ChiefComplaint: &complaint,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "improving", got.VisitNotes)

	corrections, err := f.svc.Corrections(ctx, principal(f.patient), r.ID)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, []string{"chiefComplaint", "visitNotes"}, corrections[0].Fields)
	assert.Equal(t, f.doctor.ID, corrections[0].CorrectedBy)

	var prev map[string]any
	require.NoError(t, json.Unmarshal(corrections[0].Previous, &prev))
	assert.Equal(t, "stable", prev["visitNotes"])

	// Same values again change nothing.
	_, err = f.svc.Update(ctx, principal(f.doctor), r.ID, &mr.UpdateRecordCommand{VisitNotes: &notes}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.records.updates)
}

func TestDeleteRecordIsAdminOnly(t *testing.T) {
	f := newRecordFixture(t)
	r := f.create(t)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), principal(f.doctor), r.ID, ""), access.ErrForbidden)
	require.NoError(t, f.svc.Delete(context.Background(), principal(f.admin), r.ID, ""))
	assert.ErrorIs(t, f.svc.Delete(context.Background(), principal(f.admin), r.ID, ""), mr.ErrRecordNotFound)
}

func TestListRecords(t *testing.T) {
	f := newRecordFixture(t)
	f.create(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, principal(f.admin), &mr.ListRecordsQuery{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "admins must name the patient")
	assert.Nil(t, f.records.lastQuery, "nothing was read")

	page, err := f.svc.List(ctx, principal(f.admin), &mr.ListRecordsQuery{PatientID: &f.patient.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	other := uuid.New()
	page, err = f.svc.List(ctx, principal(f.patient), &mr.ListRecordsQuery{PatientID: &other})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, f.patient.ID, page.Items[0].PatientID)

	stranger := f.users.add(access.RoleDoctor, "sam")
	page, err = f.svc.List(ctx, principal(stranger), &mr.ListRecordsQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, stranger.ID, *f.records.lastQuery.DoctorID)
}

func TestCreateRecordDefaultsVisitDate(t *testing.T) {
	f := newRecordFixture(t)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	r, err := f.svc.Create(context.Background(), principal(f.doctor), &mr.CreateRecordCommand{PatientID: f.patient.ID, VisitNotes: "x"}, "")
	require.NoError(t, err)
	assert.Equal(t, fixed, r.VisitDate)
}
