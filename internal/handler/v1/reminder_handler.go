package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/medicareplus/portal/internal/domain"
	"github.com/medicareplus/portal/internal/domain/reminder"
	"github.com/medicareplus/portal/internal/service"
)

type ReminderHandler struct {
	svc *service.ReminderService
}

func NewReminderHandler(svc *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

type createReminderRequest struct {
	Email      string `json:"email"`
	Medication string `json:"medication" binding:"required"`
	Times      string `json:"times" binding:"required"`
}

// Create handles POST /reminders. Patients always create for themselves.
func (h *ReminderHandler) Create(c *gin.Context) {
	var req createReminderRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := currentClaims(c)
	email := req.Email
	if claims.Role == domain.RolePatient || email == "" {
		email = claims.Email
	}

	rec, err := h.svc.CreateReminder(c.Request.Context(), &reminder.CreateReminderCommand{
		Email:      email,
		Medication: req.Medication,
		Times:      req.Times,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, rec)
}

// List handles GET /reminders.
func (h *ReminderHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	email := c.Query("email")
	if email == "" {
		email = claims.Email
	}

	reminders, err := h.svc.ListReminders(c.Request.Context(), email, string(claims.Role), claims.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, reminders)
}

// Delete handles DELETE /reminders/:id.
func (h *ReminderHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := currentClaims(c)
	if err := h.svc.DeleteReminder(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.Email, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}
