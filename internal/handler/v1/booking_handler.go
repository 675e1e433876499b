package v1

import (
	"encoding/csv"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicareplus/portal/internal/domain"
	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/schedule"
	"github.com/medicareplus/portal/internal/service"
	"github.com/medicareplus/portal/pkg/metrics"
)

type BookingHandler struct {
	svc       *service.BookingService
	collector *metrics.Collector
}

func NewBookingHandler(svc *service.BookingService, collector *metrics.Collector) *BookingHandler {
	return &BookingHandler{svc: svc, collector: collector}
}

// ListAvailableSlots handles GET /slots?doctor=...&modality=...&limit=...
func (h *BookingHandler) ListAvailableSlots(c *gin.Context) {
	doctor := c.Query("doctor")
	if doctor == "" {
		respondError(c, http.StatusBadRequest, "doctor query parameter is required")
		return
	}
	m, ok := parseModality(c, "modality")
	if !ok {
		return
	}
	limit := parseQueryInt(c, "limit", 0)

	slots, err := h.svc.ListAvailableSlots(c.Request.Context(), doctor, m, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, slots)
}

type bookSlotRequest struct {
	Doctor           string `json:"doctor" binding:"required"`
	Date             string `json:"date" binding:"required"`
	TimeSlot         string `json:"time_slot" binding:"required"`
	Modality         string `json:"modality"`
	PatientName      string `json:"patient_name" binding:"required"`
	DateOfBirth      string `json:"date_of_birth" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Phone            string `json:"phone"`
	InsuranceCarrier string `json:"insurance_carrier"`
}

// BookSlot handles POST /bookings.
func (h *BookingHandler) BookSlot(c *gin.Context) {
	var req bookSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	modality := schedule.ModalityInPerson
	if req.Modality != "" {
		m, err := schedule.ParseModality(req.Modality)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid modality: must be in_person or video")
			return
		}
		modality = m
	}

	claims := currentClaims(c)
	result, err := h.svc.BookSlot(c.Request.Context(), &service.BookingRequest{
		Slot: schedule.SlotKey{
			Doctor:   req.Doctor,
			Date:     req.Date,
			TimeSlot: req.TimeSlot,
			Modality: modality,
		},
		PatientName:      req.PatientName,
		DateOfBirth:      req.DateOfBirth,
		Email:            req.Email,
		Phone:            req.Phone,
		InsuranceCarrier: req.InsuranceCarrier,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		if errors.Is(err, schedule.ErrSlotUnavailable) {
			h.collector.BookingConflictsTotal.Inc()
		}
		respondServiceError(c, err)
		return
	}

	h.collector.BookingsTotal.WithLabelValues(string(modality), string(result.VisitType)).Inc()
	if result.PatientCreated {
		h.collector.PatientsCreatedTotal.Inc()
	}
	respondCreated(c, result)
}

// CancelAppointment handles DELETE /appointments/:id.
func (h *BookingHandler) CancelAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := currentClaims(c)
	result, err := h.svc.CancelAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.Email, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.CancellationsTotal.Inc()
	respondOK(c, result)
}

// ListAppointments handles GET /appointments. Patients see only their own;
// doctors see their schedule; admins see everything and may filter.
func (h *BookingHandler) ListAppointments(c *gin.Context) {
	claims := currentClaims(c)

	q := &appointment.ListAppointmentsQuery{
		Email:  c.Query("email"),
		Doctor: c.Query("doctor"),
	}
	if raw := c.Query("modality"); raw != "" {
		m, err := schedule.ParseModality(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid modality: must be in_person or video")
			return
		}
		q.Modality = &m
	}

	switch claims.Role {
	case domain.RolePatient:
		q.Email = claims.Email
	case domain.RoleDoctor:
		q.Doctor = claims.DoctorName
	}

	appts, err := h.svc.ListAppointments(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appts)
}

// ExportAppointments handles GET /admin/appointments/export, streaming the
// full appointment book as CSV.
func (h *BookingHandler) ExportAppointments(c *gin.Context) {
	appts, err := h.svc.ListAppointments(c.Request.Context(), &appointment.ListAppointmentsQuery{})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="appointments.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "name", "dob", "visit_type", "doctor", "date", "time_slot", "consult_type", "insurance_carrier", "email", "created_at"})
	for _, a := range appts {
		_ = w.Write([]string{
			a.ID.String(),
			a.PatientName,
			a.DateOfBirth,
			string(a.VisitType),
			a.Doctor,
			a.Date,
			a.TimeSlot,
			a.Modality.Display(),
			a.InsuranceCarrier,
			a.Email,
			a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
}
