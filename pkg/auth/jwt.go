package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenTypeMismatch = errors.New("wrong token type")
)

// scope separates access from refresh tokens. It is carried in the aud claim
// so a refresh token never passes as an access token.
type scope string

const (
	scopeAccess  scope = "access"
	scopeRefresh scope = "refresh"
)

const clockSkew = 10 * time.Second

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    map[scope]time.Duration
	now    func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl: map[scope]time.Duration{
			scopeAccess:  cfg.AccessTokenTTL,
			scopeRefresh: cfg.RefreshTokenTTL,
		},
		now: time.Now,
	}
}

func (m *JWTManager) audience(s scope) string {
	return m.issuer + ":" + string(s)
}

func (m *JWTManager) GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error) {
	accessToken, expiresAt, err := m.sign(claims, scopeAccess)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refreshToken, _, err := m.sign(claims, scopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

func (m *JWTManager) ValidateAccessToken(raw string) (*domain.Claims, error) {
	return m.parse(raw, scopeAccess)
}

func (m *JWTManager) ValidateRefreshToken(raw string) (*domain.Claims, error) {
	return m.parse(raw, scopeRefresh)
}

func (m *JWTManager) sign(claims *domain.Claims, s scope) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl[s])

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   claims.UserID.String(),
			Audience:  jwt.ClaimStrings{m.audience(s)},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-clockSkew)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: claims.Email,
		Role:  claims.Role,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secret, nil
}

func (m *JWTManager) parse(raw string, want scope) (*domain.Claims, error) {
	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience(want)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, ErrTokenInvalid
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return nil, ErrTokenTypeMismatch
	default:
		return nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(sc.Subject)
	if err != nil || !sc.Role.IsValid() {
		return nil, ErrTokenInvalid
	}

	return &domain.Claims{
		UserID: userID,
		Email:  sc.Email,
		Role:   sc.Role,
	}, nil
}
