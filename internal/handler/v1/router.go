package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain"
	"github.com/medicareplus/portal/pkg/auth"
	"github.com/medicareplus/portal/pkg/metrics"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWTManager *auth.JWTManager
	Collector  *metrics.Collector

	Auth     *AuthHandler
	Booking  *BookingHandler
	Patient  *PatientHandler
	Schedule *ScheduleHandler
	Symptom  *SymptomHandler
	Reminder *ReminderHandler
}

// NewRouter wires middleware and the versioned API surface.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics(deps.Collector))
	r.Use(CORS(deps.Config.CORS))
	r.Use(RateLimit(deps.Config.RateLimit))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Config.App.Name,
			"version": deps.Config.App.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(AuthRateLimit(deps.Config.RateLimit))
	{
		authGroup.POST("/register", deps.Auth.Register)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
	}
	api.POST("/auth/change-password", Authenticate(deps.JWTManager), deps.Auth.ChangePassword)

	authed := api.Group("")
	authed.Use(Authenticate(deps.JWTManager))
	{
		authed.GET("/doctors", deps.Schedule.ListDoctors)
		authed.GET("/slots", deps.Booking.ListAvailableSlots)

		authed.POST("/bookings", deps.Booking.BookSlot)
		authed.GET("/appointments", deps.Booking.ListAppointments)
		authed.DELETE("/appointments/:id", deps.Booking.CancelAppointment)

		authed.POST("/patients", deps.Patient.Register)
		authed.GET("/patients/:email", deps.Patient.Get)
		authed.PATCH("/patients/:email", deps.Patient.Update)
		authed.GET("/patients", RequireRole(domain.RoleAdmin, domain.RoleDoctor), deps.Patient.List)

		authed.POST("/symptom-checks", deps.Symptom.Check)
		authed.GET("/symptom-checks", deps.Symptom.History)

		authed.POST("/reminders", deps.Reminder.Create)
		authed.GET("/reminders", deps.Reminder.List)
		authed.DELETE("/reminders/:id", deps.Reminder.Delete)
	}

	admin := api.Group("/admin")
	admin.Use(Authenticate(deps.JWTManager), RequireRole(domain.RoleAdmin))
	{
		admin.POST("/users", deps.Auth.CreateUser)
		admin.GET("/slots", deps.Schedule.ListSlots)
		admin.POST("/slots", deps.Schedule.AddSlot)
		admin.PUT("/slots/status", deps.Schedule.SetSlotStatus)
		admin.POST("/schedule/generate", deps.Schedule.GenerateSchedule)
		admin.GET("/stats", deps.Schedule.Stats)
		admin.GET("/appointments/export", deps.Booking.ExportAppointments)
		admin.GET("/patients/export", deps.Patient.Export)
		admin.GET("/slots/export", deps.Schedule.ExportSlots)
	}

	return r
}
