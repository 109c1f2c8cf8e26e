package v1

import (
	"context"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentService interface {
	Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*payment.Payment, error)
	List(ctx context.Context, p *access.Principal, q *payment.ListPaymentsQuery) (*payment.PagedPayments, error)
	UpdateStatus(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *payment.UpdatePaymentCommand, ip string) (*payment.Payment, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type updatePaymentRequest struct {
	Status            string `json:"status" binding:"required"`
	ProviderReference string `json:"providerReference"`
}

func (h *PaymentHandler) List(c *gin.Context) {
	q := &payment.ListPaymentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 20),
	}
	var ok bool
	if q.UserID, ok = parseOptionalUUID(c, "userId"); !ok {
		return
	}
	if q.DoctorID, ok = parseOptionalUUID(c, "doctorId"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		s := payment.PaymentStatus(raw)
		if !s.IsValid() {
			respondError(c, http.StatusBadRequest, CodeValidation, "invalid status")
			return
		}
		q.Status = &s
	}

	res, err := h.svc.List(c.Request.Context(), principal(c), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pageOf(res.Payments, res.TotalCount, res.Page, res.PageSize, res.TotalPages, toPaymentResponse))
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), principal(c), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toPaymentResponse(p))
}

func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.UpdateStatus(c.Request.Context(), principal(c), id, &payment.UpdatePaymentCommand{
		Status:            payment.PaymentStatus(req.Status),
		ProviderReference: req.ProviderReference,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toPaymentResponse(p))
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments", h.List)
	rg.GET("/payments/:id", h.Get)
	rg.PUT("/payments/:id", h.UpdateStatus)
}
