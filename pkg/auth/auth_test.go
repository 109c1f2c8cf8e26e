package auth

import (
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "clinicportal-test",
	})
}

func TestTokenRoundTrip(t *testing.T) {
	m := newManager()
	claims := &domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: access.RolePatient}

	pair, err := m.GenerateTokenPair(claims)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	got, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims, got)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = m.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestExpiredToken(t *testing.T) {
	m := newManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: access.RoleDoctor})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenFromOtherIssuerRejected(t *testing.T) {
	pair, err := newManager().GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: access.RoleAdmin})
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{Secret: "test-secret-test-secret-test-secret", Issuer: "someone-else"})
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = newManager().ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTOTP(t *testing.T) {
	key, err := GenerateTOTP("clinicportal", "doc@example.com")
	require.NoError(t, err)
	assert.Contains(t, key.URL, "otpauth://totp/")

	now := time.Now()
	code, err := totp.GenerateCode(key.Secret, now)
	require.NoError(t, err)

	assert.True(t, ValidateTOTP(code, key.Secret, now))
	assert.True(t, ValidateTOTP(code, key.Secret, now.Add(30*time.Second)))
	assert.False(t, ValidateTOTP(code, key.Secret, now.Add(5*time.Minute)))
	assert.False(t, ValidateTOTP("000000x", key.Secret, now))
}
