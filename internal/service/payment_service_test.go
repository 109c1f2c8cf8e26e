package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaymentAccess(t *testing.T) {
	repo := newFakePayments()
	users := newFakeUsers()
	svc := NewPaymentService(repo, &fakeAuditor{}, metrics.NewCollector("test", prometheus.NewRegistry()), zap.NewNop())

	patient := users.add(access.RolePatient, "pat")
	doc := users.add(access.RoleDoctor, "dana")
	admin := users.add(access.RoleAdmin, "ada")
	stranger := users.add(access.RolePatient, "omar")

	pay := &payment.Payment{UserID: patient.ID, DoctorID: doc.ID, AppointmentID: uuid.New(), Amount: 5000, Status: payment.StatusPending}
	require.NoError(t, repo.Create(context.Background(), pay))
	require.NoError(t, repo.Create(context.Background(), &payment.Payment{UserID: stranger.ID, DoctorID: uuid.New(), AppointmentID: uuid.New()}))

	_, err := svc.Get(context.Background(), principal(doc), pay.ID, "")
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), principal(stranger), pay.ID, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	page, err := svc.List(context.Background(), principal(patient), &payment.ListPaymentsQuery{UserID: &stranger.ID})
	require.NoError(t, err)
	require.Len(t, page.Payments, 1)
	assert.Equal(t, pay.ID, page.Payments[0].ID)

	page, err = svc.List(context.Background(), principal(admin), &payment.ListPaymentsQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Payments, 2)

	cmd := &payment.UpdatePaymentCommand{Status: payment.StatusCompleted, ProviderReference: "ch_123"}
	_, err = svc.UpdateStatus(context.Background(), principal(patient), pay.ID, cmd, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	settled := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return settled }
	got, err := svc.UpdateStatus(context.Background(), principal(admin), pay.ID, cmd, "")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, got.Status)
	assert.Equal(t, "ch_123", got.ProviderReference)
	assert.Equal(t, settled, got.TransactionDate)

	_, err = svc.UpdateStatus(context.Background(), principal(admin), pay.ID, &payment.UpdatePaymentCommand{Status: payment.StatusPending}, "")
	assert.ErrorIs(t, err, payment.ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(context.Background(), principal(admin), pay.ID, &payment.UpdatePaymentCommand{Status: "LOST"}, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
