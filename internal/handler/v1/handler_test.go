package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAppointments struct {
	AppointmentService
	scheduled *appointment.CreateAppointmentCommand
	err       error
	lastQuery *appointment.ListAppointmentsQuery
	caller    *access.Principal
}

func (f *fakeAppointments) details(id uuid.UUID) *service.AppointmentDetails {
	return &service.AppointmentDetails{
		Appointment: &appointment.Appointment{
			ID:        id,
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
			EndTime:   "09:30",
			Duration:  30,
			Type:      appointment.TypeInPerson,
			Status:    appointment.StatusBooked,
		},
		Patient: domain.Contact{ID: uuid.New(), Name: "Pat Test", Email: "pat@example.com"},
		Doctor:  domain.Contact{ID: uuid.New(), Name: "Dana Test", Email: "dana@example.com"},
	}
}

func (f *fakeAppointments) Schedule(_ context.Context, p *access.Principal, cmd *appointment.CreateAppointmentCommand, _ string) (*service.AppointmentDetails, error) {
	f.caller, f.scheduled = p, cmd
	if f.err != nil {
		return nil, f.err
	}
	return f.details(uuid.New()), nil
}

func (f *fakeAppointments) Update(_ context.Context, p *access.Principal, id uuid.UUID, _ *appointment.UpdateAppointmentCommand, _ string) (*service.AppointmentDetails, error) {
	f.caller = p
	if f.err != nil {
		return nil, f.err
	}
	return f.details(id), nil
}

func (f *fakeAppointments) List(_ context.Context, p *access.Principal, q *appointment.ListAppointmentsQuery) (*service.Page[service.AppointmentDetails], error) {
	f.caller, f.lastQuery = p, q
	return &service.Page[service.AppointmentDetails]{
		Items:      []service.AppointmentDetails{*f.details(uuid.New())},
		TotalCount: 1, Page: 1, PageSize: 20, TotalPages: 1,
	}, nil
}

type fakeContent struct {
	ContentService
	caller *access.Principal
}

func (f *fakeContent) List(_ context.Context, p *access.Principal, q *content.ListContentQuery) (*content.PagedContent, error) {
	f.caller = p
	return &content.PagedContent{Items: []*content.Content{{ID: uuid.New(), Title: "Flu", Slug: "flu", Published: true}}, TotalCount: 1, Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakeContent) GetBySlug(_ context.Context, p *access.Principal, slug string) (*content.Content, error) {
	f.caller = p
	return nil, content.ErrContentNotFound
}

type testServer struct {
	router  *gin.Engine
	jwt     *auth.JWTManager
	appts   *fakeAppointments
	content *fakeContent
}

func newTestServer(t *testing.T, checks map[string]ReadinessCheck) *testServer {
	t.Helper()
	jwt := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "clinicportal-test",
	})
	s := &testServer{jwt: jwt, appts: &fakeAppointments{}, content: &fakeContent{}}
	s.router = NewRouter(RouterConfig{
		JWT:  jwt,
		Log:  zap.NewNop(),
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}, Handlers{
		Auth:           NewAuthHandler(nil),
		Appointments:   NewAppointmentHandler(s.appts),
		MedicalRecords: NewMedicalRecordHandler(nil),
		Doctors:        NewDoctorHandler(nil),
		Patients:       NewPatientHandler(nil),
		Content:        NewContentHandler(s.content),
		Payments:       NewPaymentHandler(nil),
		Health:         NewHealthHandler("test", checks),
	})
	return s
}

func (s *testServer) token(t *testing.T, role access.Role) string {
	t.Helper()
	pair, err := s.jwt.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return pair.AccessToken
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, errorBody(t, w).Code)
}

func TestWrongMethodIs405WithAllow(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodPatch, "/api/v1/appointments", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, CodeMethodNotAllowed, errorBody(t, w).Code)
	allow := w.Header().Get("Allow")
	assert.Contains(t, allow, http.MethodGet)
	assert.Contains(t, allow, http.MethodPost)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/api/v1/appointments", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthenticated, errorBody(t, w).Code)
	assert.Nil(t, s.appts.lastQuery)
}

func TestCreateAppointmentEnvelope(t *testing.T) {
	s := newTestServer(t, nil)
	patientID, doctorID := uuid.New(), uuid.New()
	body := `{"patientId":"` + patientID.String() + `","doctorId":"` + doctorID.String() + `","date":"2024-03-01T09:00","duration":30}`

	w := s.do(http.MethodPost, "/api/v1/appointments", s.token(t, access.RolePatient), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BOOKED", resp.Data["status"])
	assert.Equal(t, "09:30", resp.Data["endTime"])
	assert.Equal(t, "2024-03-01", resp.Data["date"])

	patient, ok := resp.Data["patient"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, patient, 3, "only id, name and email are exposed")
	assert.Equal(t, "pat@example.com", patient["email"])

	require.NotNil(t, s.appts.scheduled)
	assert.Equal(t, patientID, s.appts.scheduled.PatientID)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), s.appts.scheduled.Date)
	assert.Equal(t, access.RolePatient, s.appts.caller.Role)
}

func TestValidationErrorsListFields(t *testing.T) {
	s := newTestServer(t, nil)
	s.appts.err = &service.ValidationError{Fields: []string{"patientId is required", "doctorId is required"}}

	w := s.do(http.MethodPost, "/api/v1/appointments", s.token(t, access.RolePatient), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, CodeValidation, body.Code)
	assert.Len(t, body.Fields, 2)
}

func TestForbiddenUpdateIs403(t *testing.T) {
	s := newTestServer(t, nil)
	s.appts.err = access.ErrForbidden

	w := s.do(http.MethodPut, "/api/v1/appointments/"+uuid.NewString(), s.token(t, access.RoleDoctor), `{"notes":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, errorBody(t, w).Code)
}

func TestMalformedIDIs400(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodPut, "/api/v1/appointments/not-a-uuid", s.token(t, access.RoleAdmin), `{"notes":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAppointmentsParsesFilters(t *testing.T) {
	s := newTestServer(t, nil)
	doctorID := uuid.New()

	w := s.do(http.MethodGet, "/api/v1/appointments?status=CONFIRMED&startDate=2024-03-01&doctorId="+doctorID.String()+"&upcoming=true&page=2", s.token(t, access.RoleAdmin), "")
	require.Equal(t, http.StatusOK, w.Code)

	q := s.appts.lastQuery
	require.NotNil(t, q)
	assert.Equal(t, appointment.StatusConfirmed, *q.Status)
	assert.Equal(t, doctorID, *q.DoctorID)
	assert.True(t, q.Upcoming)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *q.DateFrom)

	w = s.do(http.MethodGet, "/api/v1/appointments?status=LOST", s.token(t, access.RoleAdmin), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicContentAttachesOptionalCaller(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/educational-content", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, s.content.caller)

	w = s.do(http.MethodGet, "/api/v1/educational-content", s.token(t, access.RoleDoctor), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.content.caller)
	assert.Equal(t, access.RoleDoctor, s.content.caller.Role)

	w = s.do(http.MethodGet, "/api/v1/articles/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/educational-content", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "writes need a token")
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appointment.ErrAppointmentConflict, http.StatusConflict, CodeConflict},
		{content.ErrSlugTaken, http.StatusConflict, CodeConflict},
		{domain.ErrEmailTaken, http.StatusConflict, CodeConflict},
		{appointment.ErrAppointmentNotFound, http.StatusNotFound, CodeNotFound},
		{appointment.ErrInvalidStatusTransition, http.StatusBadRequest, CodeValidation},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthenticated},
		{service.ErrMFARequired, http.StatusUnauthorized, CodeUnauthenticated},
		{service.ErrAccountLocked, http.StatusTooManyRequests, CodeRateLimited},
		{access.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorBody(t, w).Code)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondServiceError(c, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "10.0.0.5")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, map[string]ReadinessCheck{
		"database": func(context.Context) error { return errors.New("down") },
	})

	w := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "down")
}
