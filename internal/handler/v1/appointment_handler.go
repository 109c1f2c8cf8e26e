package v1

import (
	"context"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentService interface {
	Schedule(ctx context.Context, p *access.Principal, cmd *appointment.CreateAppointmentCommand, ip string) (*service.AppointmentDetails, error)
	Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*service.AppointmentDetails, error)
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand, ip string) (*service.AppointmentDetails, error)
	Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason, ip string) (*service.AppointmentDetails, error)
	List(ctx context.Context, p *access.Principal, q *appointment.ListAppointmentsQuery) (*service.Page[service.AppointmentDetails], error)
}

type AppointmentHandler struct {
	svc AppointmentService
}

func NewAppointmentHandler(svc AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type createAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patientId"`
	DoctorID    uuid.UUID `json:"doctorId"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	Duration    int       `json:"duration"`
	Type        string    `json:"type"`
	Reason      string    `json:"reason"`
	Symptoms    string    `json:"symptoms"`
	Notes       string    `json:"notes"`
	MeetingLink string    `json:"meetingLink"`
}

type updateAppointmentRequest struct {
	Date               *string `json:"date"`
	StartTime          *string `json:"startTime"`
	Duration           *int    `json:"duration"`
	Status             *string `json:"status"`
	Type               *string `json:"type"`
	Notes              *string `json:"notes"`
	CancellationReason *string `json:"cancellationReason"`
	MeetingLink        *string `json:"meetingLink"`
	Reason             *string `json:"reason"`
	Symptoms           *string `json:"symptoms"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CreateAppointmentCommand{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		Type:        appointment.AppointmentType(req.Type),
		Reason:      req.Reason,
		Symptoms:    req.Symptoms,
		Notes:       req.Notes,
		MeetingLink: req.MeetingLink,
	}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "invalid date")
			return
		}
		cmd.Date = d
	}

	a, err := h.svc.Schedule(c.Request.Context(), principal(c), cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), principal(c), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateAppointmentCommand{
		StartTime:          req.StartTime,
		Duration:           req.Duration,
		Notes:              req.Notes,
		CancellationReason: req.CancellationReason,
		MeetingLink:        req.MeetingLink,
		Reason:             req.Reason,
		Symptoms:           req.Symptoms,
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "invalid date")
			return
		}
		cmd.Date = &d
	}
	if req.Status != nil {
		s := appointment.AppointmentStatus(*req.Status)
		cmd.Status = &s
	}
	if req.Type != nil {
		t := appointment.AppointmentType(*req.Type)
		cmd.Type = &t
	}

	a, err := h.svc.Update(c.Request.Context(), principal(c), id, cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// Cancel soft-cancels; the appointment stays readable with status CANCELLED.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	reason := c.Query("reason")
	if c.Request.ContentLength > 0 {
		var req cancelAppointmentRequest
		if !bindJSON(c, &req) {
			return
		}
		reason = req.Reason
	}

	a, err := h.svc.Cancel(c.Request.Context(), principal(c), id, reason, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Upcoming: c.Query("upcoming") == "true",
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 20),
	}
	var ok bool
	if q.PatientID, ok = parseOptionalUUID(c, "patientId"); !ok {
		return
	}
	if q.DoctorID, ok = parseOptionalUUID(c, "doctorId"); !ok {
		return
	}
	if q.DateFrom, ok = parseOptionalDate(c, "startDate"); !ok {
		return
	}
	if q.DateTo, ok = parseOptionalDate(c, "endDate"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		s := appointment.AppointmentStatus(raw)
		if !s.IsValid() {
			respondError(c, http.StatusBadRequest, CodeValidation, "invalid status")
			return
		}
		q.Status = &s
	}

	page, err := h.svc.List(c.Request.Context(), principal(c), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, fromPage(page, toAppointmentResponse))
}

func (h *AppointmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/appointments")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Cancel)
}
