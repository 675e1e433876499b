package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/medicareplus/portal/internal/service"
	"github.com/medicareplus/portal/pkg/metrics"
)

type SymptomHandler struct {
	svc       *service.SymptomService
	collector *metrics.Collector
}

func NewSymptomHandler(svc *service.SymptomService, collector *metrics.Collector) *SymptomHandler {
	return &SymptomHandler{svc: svc, collector: collector}
}

type symptomCheckRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

// Check handles POST /symptom-checks.
func (h *SymptomHandler) Check(c *gin.Context) {
	var req symptomCheckRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := currentClaims(c)
	record, err := h.svc.CheckSymptoms(c.Request.Context(), claims.Email, req.Symptoms, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		h.collector.SymptomChecksTotal.WithLabelValues("error").Inc()
		respondServiceError(c, err)
		return
	}

	h.collector.SymptomChecksTotal.WithLabelValues("ok").Inc()
	respondCreated(c, record)
}

// History handles GET /symptom-checks. Patients get their own history; staff
// may pass ?email= to read a patient's.
func (h *SymptomHandler) History(c *gin.Context) {
	claims := currentClaims(c)
	email := c.Query("email")
	if email == "" {
		email = claims.Email
	}

	records, err := h.svc.History(c.Request.Context(), email, string(claims.Role), claims.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, records)
}
