package v1

import (
	"context"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, cmd *service.RegisterCommand, ip string) (*domain.User, error)
	CreateUser(ctx context.Context, p *access.Principal, cmd *service.CreateUserCommand, ip string) (*domain.User, error)
	Login(ctx context.Context, email, password, otpCode, ip string) (*domain.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Me(ctx context.Context, p *access.Principal) (*domain.User, error)
	ChangePassword(ctx context.Context, p *access.Principal, currentPassword, newPassword string) error
	EnrollMFA(ctx context.Context, p *access.Principal) (*auth.TOTPKey, error)
	VerifyMFA(ctx context.Context, p *access.Principal, code string) error
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}

func (r registerRequest) command() service.RegisterCommand {
	return service.RegisterCommand{Email: r.Email, Password: r.Password, FirstName: r.FirstName, LastName: r.LastName}
}

type createUserRequest struct {
	registerRequest
	Role access.Role `json:"role" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	OTPCode  string `json:"otpCode"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type mfaVerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := req.command()
	u, err := h.svc.Register(c.Request.Context(), &cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toUserResponse(u))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, req.OTPCode, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), principal(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toUserResponse(u))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) EnrollMFA(c *gin.Context) {
	key, err := h.svc.EnrollMFA(c.Request.Context(), principal(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, key)
}

func (h *AuthHandler) VerifyMFA(c *gin.Context) {
	var req mfaVerifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.VerifyMFA(c.Request.Context(), principal(c), req.Code); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"mfaEnabled": true})
}

// CreateUser is the admin path for accounts with a role other than PATIENT.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := service.CreateUserCommand{RegisterCommand: req.command(), Role: req.Role}
	u, err := h.svc.CreateUser(c.Request.Context(), principal(c), &cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toUserResponse(u))
}

// RegisterRoutes mounts the public auth endpoints on public and the rest on
// authed, which must already run the authentication middleware.
func (h *AuthHandler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/refresh", h.Refresh)

	authed.GET("/auth/me", h.Me)
	authed.PUT("/auth/password", h.ChangePassword)
	authed.POST("/auth/mfa/enroll", h.EnrollMFA)
	authed.POST("/auth/mfa/verify", h.VerifyMFA)
	authed.POST("/users", h.CreateUser)
}
