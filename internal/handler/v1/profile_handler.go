package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DoctorProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*service.DoctorDetails, error)
	List(ctx context.Context, q *doctor.ListQuery) (*service.Page[service.DoctorDetails], error)
	Create(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *doctor.ProfileCommand, ip string) (*service.DoctorDetails, error)
	Update(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *doctor.ProfileCommand, ip string) (*service.DoctorDetails, error)
	Delete(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) error
}

type PatientProfileService interface {
	Get(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) (*patient.Profile, error)
	Create(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *patient.ProfileCommand, ip string) (*patient.Profile, error)
	Update(ctx context.Context, p *access.Principal, userID uuid.UUID, cmd *patient.ProfileCommand, ip string) (*patient.Profile, error)
	Delete(ctx context.Context, p *access.Principal, userID uuid.UUID, ip string) error
}

type doctorProfileRequest struct {
	Specialty            *string         `json:"specialty"`
	Qualifications       []string        `json:"qualifications"`
	LicenseNumber        *string         `json:"licenseNumber"`
	Bio                  *string         `json:"bio"`
	YearsOfExperience    *int            `json:"yearsOfExperience"`
	ConsultationFee      *int64          `json:"consultationFee"`
	Education            []string        `json:"education"`
	Languages            []string        `json:"languages"`
	AvailabilitySchedule json.RawMessage `json:"availabilitySchedule"`
	IsAcceptingPatients  *bool           `json:"isAcceptingPatients"`
}

func (r *doctorProfileRequest) command() *doctor.ProfileCommand {
	return &doctor.ProfileCommand{
		Specialty:            r.Specialty,
		Qualifications:       r.Qualifications,
		LicenseNumber:        r.LicenseNumber,
		Bio:                  r.Bio,
		YearsOfExperience:    r.YearsOfExperience,
		ConsultationFee:      r.ConsultationFee,
		Education:            r.Education,
		Languages:            r.Languages,
		AvailabilitySchedule: r.AvailabilitySchedule,
		IsAcceptingPatients:  r.IsAcceptingPatients,
	}
}

type patientProfileRequest struct {
	DateOfBirth        *string                   `json:"dateOfBirth"`
	Phone              *string                   `json:"phone"`
	Address            *string                   `json:"address"`
	BloodType          *string                   `json:"bloodType"`
	MedicalHistory     *string                   `json:"medicalHistory"`
	Allergies          []string                  `json:"allergies"`
	CurrentMedications []string                  `json:"currentMedications"`
	EmergencyContact   *patient.EmergencyContact `json:"emergencyContact"`
}

func (r *patientProfileRequest) command() (*patient.ProfileCommand, error) {
	cmd := &patient.ProfileCommand{
		Phone:              r.Phone,
		Address:            r.Address,
		MedicalHistory:     r.MedicalHistory,
		Allergies:          r.Allergies,
		CurrentMedications: r.CurrentMedications,
		EmergencyContact:   r.EmergencyContact,
	}
	if r.DateOfBirth != nil {
		dob, err := parseDate(*r.DateOfBirth)
		if err != nil {
			return nil, err
		}
		cmd.DateOfBirth = &dob
	}
	if r.BloodType != nil {
		bt := patient.BloodType(*r.BloodType)
		cmd.BloodType = &bt
	}
	return cmd, nil
}

type DoctorHandler struct {
	svc DoctorProfileService
}

func NewDoctorHandler(svc DoctorProfileService) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.ListQuery{
		Specialty: c.Query("specialty"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	if accepting := parseQueryBool(c, "isAcceptingPatients"); accepting != nil {
		q.AcceptingOnly = *accepting
	}
	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, fromPage(page, toDoctorResponse))
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	h.get(c, id)
}

func (h *DoctorHandler) get(c *gin.Context, userID uuid.UUID) {
	d, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	h.update(c, id)
}

func (h *DoctorHandler) update(c *gin.Context, userID uuid.UUID) {
	var req doctorProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Update(c.Request.Context(), principal(c), userID, req.command(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal(c), id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DoctorHandler) GetOwn(c *gin.Context) {
	if id, ok := targetUser(c); ok {
		h.get(c, id)
	}
}

func (h *DoctorHandler) CreateOwn(c *gin.Context) {
	id, ok := targetUser(c)
	if !ok {
		return
	}
	var req doctorProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Create(c.Request.Context(), principal(c), id, req.command(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toDoctorResponse(d))
}

func (h *DoctorHandler) UpdateOwn(c *gin.Context) {
	if id, ok := targetUser(c); ok {
		h.update(c, id)
	}
}

// RegisterRoutes mounts the doctor directory on public and profile
// management on authed.
func (h *DoctorHandler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/doctors", h.List)
	public.GET("/doctors/:userId", h.Get)
	authed.PUT("/doctors/:userId", h.Update)
	authed.DELETE("/doctors/:userId", h.Delete)

	authed.GET("/profile/doctor", h.GetOwn)
	authed.POST("/profile/doctor", h.CreateOwn)
	authed.PUT("/profile/doctor", h.UpdateOwn)
}

type PatientHandler struct {
	svc PatientProfileService
	now func() time.Time
}

func NewPatientHandler(svc PatientProfileService) *PatientHandler {
	return &PatientHandler{svc: svc, now: time.Now}
}

func (h *PatientHandler) get(c *gin.Context, userID uuid.UUID) {
	prof, err := h.svc.Get(c.Request.Context(), principal(c), userID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toPatientProfileResponse(prof, h.now()))
}

func (h *PatientHandler) write(c *gin.Context, userID uuid.UUID, create bool) {
	var req patientProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd, err := req.command()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "invalid dateOfBirth")
		return
	}

	var prof *patient.Profile
	if create {
		prof, err = h.svc.Create(c.Request.Context(), principal(c), userID, cmd, c.ClientIP())
	} else {
		prof, err = h.svc.Update(c.Request.Context(), principal(c), userID, cmd, c.ClientIP())
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if create {
		status = http.StatusCreated
	}
	c.JSON(status, APIResponse[PatientProfileResponse]{Data: toPatientProfileResponse(prof, h.now())})
}

func (h *PatientHandler) GetOwn(c *gin.Context) {
	if id, ok := targetUser(c); ok {
		h.get(c, id)
	}
}

func (h *PatientHandler) CreateOwn(c *gin.Context) {
	if id, ok := targetUser(c); ok {
		h.write(c, id, true)
	}
}

func (h *PatientHandler) UpdateOwn(c *gin.Context) {
	if id, ok := targetUser(c); ok {
		h.write(c, id, false)
	}
}

func (h *PatientHandler) Get(c *gin.Context) {
	if id, ok := parseUUID(c, "userId"); ok {
		h.get(c, id)
	}
}

func (h *PatientHandler) Update(c *gin.Context) {
	if id, ok := parseUUID(c, "userId"); ok {
		h.write(c, id, false)
	}
}

func (h *PatientHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal(c), id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PatientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile/patient", h.GetOwn)
	rg.POST("/profile/patient", h.CreateOwn)
	rg.PUT("/profile/patient", h.UpdateOwn)

	rg.GET("/patients/:userId", h.Get)
	rg.PUT("/patients/:userId", h.Update)
	rg.DELETE("/patients/:userId", h.Delete)
}
