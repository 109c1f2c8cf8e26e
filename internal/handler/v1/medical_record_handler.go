package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MedicalRecordService interface {
	Create(ctx context.Context, p *access.Principal, cmd *mr.CreateRecordCommand, ip string) (*service.RecordDetails, error)
	Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*service.RecordDetails, error)
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *mr.UpdateRecordCommand, ip string) (*service.RecordDetails, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) error
	List(ctx context.Context, p *access.Principal, q *mr.ListRecordsQuery) (*service.Page[service.RecordDetails], error)
	Corrections(ctx context.Context, p *access.Principal, id uuid.UUID) ([]*mr.Correction, error)
}

type MedicalRecordHandler struct {
	svc MedicalRecordService
}

func NewMedicalRecordHandler(svc MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{svc: svc}
}

type createRecordRequest struct {
	PatientID      uuid.UUID       `json:"patientId"`
	DoctorID       uuid.UUID       `json:"doctorId"`
	AppointmentID  *uuid.UUID      `json:"appointmentId"`
	VisitDate      *time.Time      `json:"visitDate"`
	ChiefComplaint string          `json:"chiefComplaint"`
	Diagnoses      []string        `json:"diagnoses"`
	TreatmentPlans []string        `json:"treatmentPlans"`
	Prescriptions  json.RawMessage `json:"prescriptions"`
	LabResults     json.RawMessage `json:"labResults"`
	Vitals         *mr.Vitals      `json:"vitals"`
	VisitNotes     string          `json:"visitNotes"`
	FollowUpDate   *time.Time      `json:"followUpDate"`
}

type updateRecordRequest struct {
	VisitDate      *time.Time      `json:"visitDate"`
	ChiefComplaint *string         `json:"chiefComplaint"`
	Diagnoses      []string        `json:"diagnoses"`
	TreatmentPlans []string        `json:"treatmentPlans"`
	Prescriptions  json.RawMessage `json:"prescriptions"`
	LabResults     json.RawMessage `json:"labResults"`
	Vitals         *mr.Vitals      `json:"vitals"`
	VisitNotes     *string         `json:"visitNotes"`
	FollowUpDate   *time.Time      `json:"followUpDate"`
}

func (h *MedicalRecordHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := &mr.CreateRecordCommand{
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		AppointmentID:  req.AppointmentID,
		ChiefComplaint: req.ChiefComplaint,
		Diagnoses:      req.Diagnoses,
		TreatmentPlans: req.TreatmentPlans,
		Prescriptions:  req.Prescriptions,
		LabResults:     req.LabResults,
		Vitals:         req.Vitals,
		VisitNotes:     req.VisitNotes,
		FollowUpDate:   req.FollowUpDate,
	}
	if req.VisitDate != nil {
		cmd.VisitDate = *req.VisitDate
	}

	r, err := h.svc.Create(c.Request.Context(), principal(c), cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toRecordResponse(r))
}

func (h *MedicalRecordHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), principal(c), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toRecordResponse(r))
}

func (h *MedicalRecordHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := &mr.UpdateRecordCommand{
		VisitDate:      req.VisitDate,
		ChiefComplaint: req.ChiefComplaint,
		Diagnoses:      req.Diagnoses,
		TreatmentPlans: req.TreatmentPlans,
		Prescriptions:  req.Prescriptions,
		LabResults:     req.LabResults,
		Vitals:         req.Vitals,
		VisitNotes:     req.VisitNotes,
		FollowUpDate:   req.FollowUpDate,
	}

	r, err := h.svc.Update(c.Request.Context(), principal(c), id, cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toRecordResponse(r))
}

func (h *MedicalRecordHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal(c), id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MedicalRecordHandler) List(c *gin.Context) {
	q := &mr.ListRecordsQuery{
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

	page, err := h.svc.List(c.Request.Context(), principal(c), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, fromPage(page, toRecordResponse))
}

func (h *MedicalRecordHandler) Corrections(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Corrections(c.Request.Context(), principal(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]CorrectionResponse, 0, len(list))
	for _, corr := range list {
		out = append(out, toCorrectionResponse(corr))
	}
	respondOK(c, out)
}

func (h *MedicalRecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/medical-records")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/corrections", h.Corrections)
}
