package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/patient"
	"github.com/medicareplus/portal/internal/domain/reminder"
	"github.com/medicareplus/portal/internal/domain/schedule"
	"github.com/medicareplus/portal/internal/service"
	"github.com/medicareplus/portal/internal/storage/csvstore"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, csvstore.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "records store temporarily unavailable",
			Code:  "STORE_UNAVAILABLE",
		})

	case errors.Is(err, schedule.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "the requested slot is no longer available",
			Code:  "SLOT_UNAVAILABLE",
		})

	case errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, schedule.ErrSlotExists),
		errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, schedule.ErrUnknownDoctor),
		errors.Is(err, schedule.ErrSlotNotFound),
		errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, reminder.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrInvalidPatientRecord),
		errors.Is(err, schedule.ErrMalformedSlot),
		errors.Is(err, schedule.ErrDoctorRequired),
		errors.Is(err, schedule.ErrInvalidTransition),
		errors.Is(err, patient.ErrEmailRequired),
		errors.Is(err, patient.ErrInvalidEmail),
		errors.Is(err, patient.ErrNameRequired),
		errors.Is(err, reminder.ErrMedicationRequired),
		errors.Is(err, reminder.ErrTimesRequired),
		errors.Is(err, service.ErrSymptomsRequired),
		errors.Is(err, service.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account is inactive"})

	case errors.Is(err, service.ErrSymptomCheckerDisabled):
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "symptom checker is not enabled"})

	case errors.Is(err, service.ErrAssessmentUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "assessment service temporarily unavailable",
			Code:  "UPSTREAM_UNAVAILABLE",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// parseModality reads the modality from a query param or path segment,
// defaulting to in-person when absent.
func parseModality(c *gin.Context, key string) (schedule.Modality, bool) {
	raw := c.Query(key)
	if raw == "" {
		raw = c.Param(key)
	}
	if raw == "" {
		return schedule.ModalityInPerson, true
	}
	m, err := schedule.ParseModality(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid modality: must be in_person or video"})
		return "", false
	}
	return m, true
}
