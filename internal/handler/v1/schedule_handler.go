package v1

import (
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/domain/schedule"
	"github.com/medicareplus/portal/internal/service"
)

type ScheduleHandler struct {
	svc        *service.ScheduleService
	bookingSvc *service.BookingService
	patientSvc *service.PatientService
}

func NewScheduleHandler(svc *service.ScheduleService, bookingSvc *service.BookingService, patientSvc *service.PatientService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, bookingSvc: bookingSvc, patientSvc: patientSvc}
}

// ListDoctors handles GET /doctors?modality=...
func (h *ScheduleHandler) ListDoctors(c *gin.Context) {
	m, ok := parseModality(c, "modality")
	if !ok {
		return
	}
	doctors, err := h.svc.ListDoctors(c.Request.Context(), m)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctors)
}

// ListSlots handles GET /admin/slots, the unfiltered admin view.
func (h *ScheduleHandler) ListSlots(c *gin.Context) {
	m, ok := parseModality(c, "modality")
	if !ok {
		return
	}

	var status *schedule.SlotStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := schedule.ParseSlotStatus(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid status: must be Available, Booked, or Blocked")
			return
		}
		status = &parsed
	}

	slots, err := h.svc.ListSlots(c.Request.Context(), m, c.Query("doctor"), status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, slots)
}

type addSlotRequest struct {
	Doctor   string `json:"doctor" binding:"required"`
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required"`
	Modality string `json:"modality"`
}

// AddSlot handles POST /admin/slots.
func (h *ScheduleHandler) AddSlot(c *gin.Context) {
	var req addSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := modalityOrDefault(req.Modality)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid modality: must be in_person or video")
		return
	}

	claims := currentClaims(c)
	slot, err := h.svc.AddSlot(c.Request.Context(), &schedule.AddSlotCommand{
		Doctor:   req.Doctor,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		Modality: m,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, slot)
}

type generateScheduleRequest struct {
	Doctor    string   `json:"doctor" binding:"required"`
	StartDate string   `json:"start_date" binding:"required"`
	EndDate   string   `json:"end_date" binding:"required"`
	TimeSlots []string `json:"time_slots" binding:"required"`
	Modality  string   `json:"modality"`
}

// GenerateSchedule handles POST /admin/schedule/generate.
func (h *ScheduleHandler) GenerateSchedule(c *gin.Context) {
	var req generateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := modalityOrDefault(req.Modality)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid modality: must be in_person or video")
		return
	}

	claims := currentClaims(c)
	created, err := h.svc.GenerateSchedule(c.Request.Context(), &schedule.GenerateScheduleCommand{
		Doctor:    req.Doctor,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		TimeSlots: req.TimeSlots,
		Modality:  m,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, gin.H{"created": created})
}

type setSlotStatusRequest struct {
	Doctor   string `json:"doctor" binding:"required"`
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required"`
	Modality string `json:"modality"`
	Status   string `json:"status" binding:"required"`
}

// SetSlotStatus handles PUT /admin/slots/status.
func (h *ScheduleHandler) SetSlotStatus(c *gin.Context) {
	var req setSlotStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := modalityOrDefault(req.Modality)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid modality: must be in_person or video")
		return
	}
	status, err := schedule.ParseSlotStatus(req.Status)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid status: must be Available, Booked, or Blocked")
		return
	}

	claims := currentClaims(c)
	slot, err := h.svc.SetSlotStatus(c.Request.Context(), &schedule.SetSlotStatusCommand{
		Key: schedule.SlotKey{
			Doctor:   req.Doctor,
			Date:     req.Date,
			TimeSlot: req.TimeSlot,
			Modality: m,
		},
		Status: status,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, slot)
}

type dashboardStats struct {
	Patients     int                        `json:"patients"`
	Appointments map[string]int             `json:"appointments_by_visit_type"`
	Slots        map[string]*schedule.Stats `json:"slots_by_modality"`
}

// Stats handles GET /admin/stats: patient count, appointment counts by visit
// type, and per-modality slot totals.
func (h *ScheduleHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	out := dashboardStats{
		Appointments: map[string]int{
			string(patient.VisitNew):       0,
			string(patient.VisitReturning): 0,
		},
		Slots: make(map[string]*schedule.Stats, 2),
	}

	patients, err := h.patientSvc.ListPatients(ctx, &patient.ListPatientsQuery{})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out.Patients = len(patients)

	appts, err := h.bookingSvc.ListAppointments(ctx, &appointment.ListAppointmentsQuery{})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	for _, a := range appts {
		out.Appointments[string(a.VisitType)]++
	}

	for _, m := range []schedule.Modality{schedule.ModalityInPerson, schedule.ModalityVideo} {
		stats, err := h.svc.Stats(ctx, m)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		out.Slots[string(m)] = stats
	}
	respondOK(c, out)
}

// ExportSlots handles GET /admin/slots/export, streaming both schedule
// tables as one CSV with a modality column.
func (h *ScheduleHandler) ExportSlots(c *gin.Context) {
	ctx := c.Request.Context()

	var all []schedule.Slot
	for _, m := range []schedule.Modality{schedule.ModalityInPerson, schedule.ModalityVideo} {
		slots, err := h.svc.ListSlots(ctx, m, "", nil)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		all = append(all, slots...)
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="doctor_schedule.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"modality", "doctor", "date", "time_slot", "status"})
	for _, s := range all {
		_ = w.Write([]string{string(s.Modality), s.Doctor, s.Date, s.TimeSlot, string(s.Status)})
	}
	w.Flush()
}

func modalityOrDefault(raw string) (schedule.Modality, error) {
	if raw == "" {
		return schedule.ModalityInPerson, nil
	}
	return schedule.ParseModality(raw)
}
