package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const minPasswordLength = 12

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
	RecordLoginAttempt(ctx context.Context, id uuid.UUID, success bool, lockUntil *time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateMFA(ctx context.Context, id uuid.UUID, enabled bool, secret string) error
}

type RegisterCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type CreateUserCommand struct {
	RegisterCommand
	Role access.Role
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditor    Auditor
	log        *zap.Logger
	issuer     string
	now        func() time.Time
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditor Auditor, log *zap.Logger, issuer string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		auditor:    auditor,
		log:        log,
		issuer:     issuer,
		now:        time.Now,
	}
}

// Register creates a self-service account. Public sign-ups are always
// patients.
func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand, ip string) (*domain.User, error) {
	u, err := s.createUser(ctx, cmd, access.RolePatient)
	if err != nil {
		return nil, err
	}
	s.log.Info("patient registered", zap.String("user_id", u.ID.String()), zap.String("ip", ip))
	return u, nil
}

// CreateUser lets an administrator add staff accounts of any role.
func (s *AuthService) CreateUser(ctx context.Context, p *access.Principal, cmd *CreateUserCommand, ip string) (*domain.User, error) {
	if err := access.Require(p, access.ResourceUser, access.ActionCreate); err != nil {
		return nil, err
	}
	if !cmd.Role.IsValid() {
		return nil, invalid("role must be one of MEMBER, ADMIN, OWNER, PATIENT, DOCTOR")
	}
	u, err := s.createUser(ctx, &cmd.RegisterCommand, cmd.Role)
	if err != nil {
		return nil, err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourceUser, u.ID, ip))
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, cmd *RegisterCommand, role access.Role) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	var v validation
	_, mailErr := mail.ParseAddress(email)
	v.add(email == "" || mailErr != nil, "email must be a valid address")
	v.add(strings.TrimSpace(cmd.FirstName) == "", "firstName is required")
	v.add(len(cmd.Password) < minPasswordLength, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         strings.TrimSpace(cmd.FirstName),
		LastName:          strings.TrimSpace(cmd.LastName),
		Role:              role,
		IsActive:          true,
		PasswordChangedAt: s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, otpCode, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		// Hash anyway so response time does not reveal whether the email exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, user, ip)
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if otpCode == "" {
			return nil, ErrMFARequired
		}
		if !auth.ValidateTOTP(otpCode, user.MFASecret, s.now()) {
			s.recordFailure(ctx, user, ip)
			return nil, ErrInvalidMFACode
		}
	}

	if err := s.userRepo.RecordLoginAttempt(ctx, user.ID, true, nil); err != nil {
		s.log.Warn("recording successful login", zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditor.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     user.Role,
		Action:       domain.ActionLogin,
		ResourceType: access.ResourceUser,
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return pair, nil
}

func (s *AuthService) recordFailure(ctx context.Context, user *domain.User, ip string) {
	var lockUntil *time.Time
	if user.FailedLoginCount+1 >= maxFailedAttempts {
		t := s.now().Add(lockDuration)
		lockUntil = &t
	}
	if err := s.userRepo.RecordLoginAttempt(ctx, user.ID, false, lockUntil); err != nil {
		s.log.Warn("recording failed login", zap.Error(err))
	}
	s.log.Warn("failed login attempt",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
		zap.Bool("locked", lockUntil != nil),
	)
}

// RefreshToken issues a new token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// The role may have changed or the account been disabled since issue.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

func (s *AuthService) Me(ctx context.Context, p *access.Principal) (*domain.User, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	return s.userRepo.GetByID(ctx, p.UserID)
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, p *access.Principal, currentPassword, newPassword string) error {
	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if len(newPassword) < minPasswordLength {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, string(hash))
}

// EnrollMFA stores a new TOTP secret. MFA stays off until VerifyMFA proves
// the caller's authenticator produces valid codes.
func (s *AuthService) EnrollMFA(ctx context.Context, p *access.Principal) (*auth.TOTPKey, error) {
	user, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	key, err := auth.GenerateTOTP(s.issuer, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateMFA(ctx, user.ID, false, key.Secret); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *AuthService) VerifyMFA(ctx context.Context, p *access.Principal, code string) error {
	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if user.MFASecret == "" {
		return ErrMFANotEnrolled
	}
	if !auth.ValidateTOTP(code, user.MFASecret, s.now()) {
		return ErrInvalidMFACode
	}
	return s.userRepo.UpdateMFA(ctx, user.ID, true, user.MFASecret)
}

func claimsFor(u *domain.User) *domain.Claims {
	return &domain.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}
