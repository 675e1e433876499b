package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	v1 "github.com/medicareplus/portal/internal/handler/v1"
	"github.com/medicareplus/portal/internal/service"
	"github.com/medicareplus/portal/internal/storage/csvstore"
	"github.com/medicareplus/portal/internal/storage/postgres"
	"github.com/medicareplus/portal/pkg/auth"
	"github.com/medicareplus/portal/pkg/database"
	"github.com/medicareplus/portal/pkg/logger"
	"github.com/medicareplus/portal/pkg/metrics"
	"github.com/medicareplus/portal/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("initializing logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("portal")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	// Repositories. Clinical data lives in flat-file snapshot stores; auth
	// and audit live in Postgres.
	slotRepo := csvstore.NewScheduleRepository(cfg.Storage)
	patientRepo := csvstore.NewPatientRepository(cfg.Storage)
	apptRepo := csvstore.NewAppointmentRepository(cfg.Storage)
	reminderRepo := csvstore.NewReminderRepository(cfg.Storage)
	assessmentRepo := csvstore.NewAssessmentRepository(cfg.Storage)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services. One guard serializes every store mutation.
	guard := &service.StoreGuard{}
	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()
	notifySvc := service.NewNotificationService(cfg.SMTP, log)
	defer notifySvc.Shutdown()

	bookingSvc := service.NewBookingService(slotRepo, apptRepo, patientRepo, auditSvc, notifySvc, guard, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, guard, log)
	scheduleSvc := service.NewScheduleService(slotRepo, auditSvc, guard, log)
	symptomSvc := service.NewSymptomService(assessmentRepo, auditSvc, guard, cfg.Symptom, log)
	reminderSvc := service.NewReminderService(reminderRepo, auditSvc, guard, log)
	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:     cfg,
		Logger:     log,
		JWTManager: jwtManager,
		Collector:  collector,
		Auth:       v1.NewAuthHandler(authSvc),
		Booking:    v1.NewBookingHandler(bookingSvc, collector),
		Patient:    v1.NewPatientHandler(patientSvc, collector),
		Schedule:   v1.NewScheduleHandler(scheduleSvc, bookingSvc, patientSvc),
		Symptom:    v1.NewSymptomHandler(symptomSvc, collector),
		Reminder:   v1.NewReminderHandler(reminderSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
