package v1

import (
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicareplus/portal/internal/domain"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/service"
	"github.com/medicareplus/portal/pkg/metrics"
)

type PatientHandler struct {
	svc       *service.PatientService
	collector *metrics.Collector
}

func NewPatientHandler(svc *service.PatientService, collector *metrics.Collector) *PatientHandler {
	return &PatientHandler{svc: svc, collector: collector}
}

type registerPatientRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
}

// Register handles POST /patients.
func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.RegisterPatient(c.Request.Context(), &patient.RegisterPatientCommand{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PatientsCreatedTotal.Inc()
	respondCreated(c, p)
}

// Get handles GET /patients/:email.
func (h *PatientHandler) Get(c *gin.Context) {
	claims := currentClaims(c)
	p, err := h.svc.GetPatient(c.Request.Context(), c.Param("email"), string(claims.Role), claims.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type updatePatientRequest struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	DateOfBirth      *string `json:"date_of_birth"`
	Doctor           *string `json:"doctor"`
	InsuranceCarrier *string `json:"insurance_carrier"`
}

// Update handles PATCH /patients/:email.
func (h *PatientHandler) Update(c *gin.Context) {
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := currentClaims(c)
	p, err := h.svc.UpdatePatient(c.Request.Context(), c.Param("email"), &patient.UpdatePatientCommand{
		Name:             req.Name,
		Phone:            req.Phone,
		DateOfBirth:      req.DateOfBirth,
		Doctor:           req.Doctor,
		InsuranceCarrier: req.InsuranceCarrier,
	}, claims.UserID, string(claims.Role), claims.Email, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// List handles GET /patients. Staff only; doctors are scoped to their own
// panel.
func (h *PatientHandler) List(c *gin.Context) {
	claims := currentClaims(c)

	q := &patient.ListPatientsQuery{
		Search: c.Query("search"),
		Doctor: c.Query("doctor"),
	}
	if claims.Role == domain.RoleDoctor {
		q.Doctor = claims.DoctorName
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patients)
}

// Export handles GET /admin/patients/export, streaming the patient roster
// as CSV.
func (h *PatientHandler) Export(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context(), &patient.ListPatientsQuery{})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="patients.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"name", "dob", "email", "phone", "doctor", "insurance_carrier"})
	for _, p := range patients {
		_ = w.Write([]string{p.Name, p.DateOfBirth, p.Email, p.Phone, p.Doctor, p.InsuranceCarrier})
	}
	w.Flush()
}
