package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "correct-horse-battery"

func newAuthService(users *fakeUsers) *AuthService {
	jwt := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "clinicportal-test",
	})
	return NewAuthService(users, jwt, &fakeAuditor{}, zap.NewNop(), "clinicportal-test")
}

func TestRegisterCreatesPatient(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)

	u, err := svc.Register(context.Background(), &RegisterCommand{
		Email:     "  New.Patient@Example.com ",
		Password:  testPassword,
		FirstName: "New",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, access.RolePatient, u.Role)
	assert.Equal(t, "new.patient@example.com", u.Email)
	assert.NotEqual(t, testPassword, u.PasswordHash)

	_, err = svc.Register(context.Background(), &RegisterCommand{Email: "bad", Password: "short", FirstName: ""}, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestCreateUserIsAdminOnly(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	admin := users.add(access.RoleAdmin, "ada")
	patient := users.add(access.RolePatient, "pat")

	cmd := &CreateUserCommand{
		RegisterCommand: RegisterCommand{Email: "doc@example.com", Password: testPassword, FirstName: "Doc"},
		Role:            access.RoleDoctor,
	}
	_, err := svc.CreateUser(context.Background(), principal(patient), cmd, "")
	assert.ErrorIs(t, err, access.ErrForbidden)

	u, err := svc.CreateUser(context.Background(), principal(admin), cmd, "")
	require.NoError(t, err)
	assert.Equal(t, access.RoleDoctor, u.Role)
}

func TestLoginIssuesTokens(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	u := users.add(access.RoleDoctor, "dana")

	pair, err := svc.Login(context.Background(), u.Email, testPassword, "", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotNil(t, u.LastLoginAt)

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access token cannot refresh")
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(newFakeUsers())
	_, err := svc.Login(context.Background(), "ghost@example.com", testPassword, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	u := users.add(access.RolePatient, "pat")

	for range maxFailedAttempts {
		_, err := svc.Login(context.Background(), u.Email, "wrong-password", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	require.NotNil(t, u.LockedUntil)

	_, err := svc.Login(context.Background(), u.Email, testPassword, "", "")
	assert.ErrorIs(t, err, ErrAccountLocked, "correct password is refused while locked")
}

func TestLoginInactiveAccount(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	u := users.add(access.RolePatient, "pat")
	u.IsActive = false

	_, err := svc.Login(context.Background(), u.Email, testPassword, "", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestMFAEnrollmentAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	u := users.add(access.RoleDoctor, "dana")
	p := principal(u)

	assert.ErrorIs(t, svc.VerifyMFA(context.Background(), p, "123456"), ErrMFANotEnrolled)

	key, err := svc.EnrollMFA(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, u.MFAEnabled, "enrollment alone does not turn MFA on")

	assert.ErrorIs(t, svc.VerifyMFA(context.Background(), p, "000000"), ErrInvalidMFACode)

	code, err := totp.GenerateCode(key.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.VerifyMFA(context.Background(), p, code))
	assert.True(t, u.MFAEnabled)

	_, err = svc.Login(context.Background(), u.Email, testPassword, "", "")
	assert.ErrorIs(t, err, ErrMFARequired)

	_, err = svc.Login(context.Background(), u.Email, testPassword, "000000", "")
	assert.ErrorIs(t, err, ErrInvalidMFACode)

	pair, err := svc.Login(context.Background(), u.Email, testPassword, code, "")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestChangePassword(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)
	u := users.add(access.RolePatient, "pat")
	p := principal(u)

	assert.ErrorIs(t, svc.ChangePassword(context.Background(), p, "wrong-password", "another-long-password"), ErrInvalidCredentials)

	var verr *ValidationError
	assert.ErrorAs(t, svc.ChangePassword(context.Background(), p, testPassword, "short"), &verr)

	require.NoError(t, svc.ChangePassword(context.Background(), p, testPassword, "another-long-password"))
	_, err := svc.Login(context.Background(), u.Email, "another-long-password", "", "")
	assert.NoError(t, err)
}
