package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/storage/csvstore"
)

func newSymptomFixture(t *testing.T, upstream http.HandlerFunc) *SymptomService {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := config.SymptomCheckerConfig{
		Enabled:     true,
		BaseURL:     server.URL,
		Model:       "gemini-2.5-pro",
		APIKey:      "test-key",
		Timeout:     5 * time.Second,
		MaxFailures: 2,
	}

	log := zap.NewNop()
	auditSvc := NewAuditService(nopAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)

	repo := csvstore.NewAssessmentRepository(config.StorageConfig{DataDir: t.TempDir(), AssessmentsFile: "symptom_checks.csv"})
	return NewSymptomService(repo, auditSvc, &StoreGuard{}, cfg, log)
}

func modelResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestCheckSymptomsStoresAssessment(t *testing.T) {
	svc := newSymptomFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelResponse("Sounds like a mild cold. Self-monitor.")))
	})
	ctx := context.Background()

	record, err := svc.CheckSymptoms(ctx, "Alice@Example.com", "runny nose and cough", uuid.New(), "patient", "")
	if err != nil {
		t.Fatalf("CheckSymptoms: %v", err)
	}
	if record.Guidance != "Sounds like a mild cold. Self-monitor." {
		t.Errorf("guidance = %q", record.Guidance)
	}
	if record.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", record.Email)
	}
	if record.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", record.Model)
	}

	history, err := svc.History(ctx, "alice@example.com", "patient", "alice@example.com")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != record.ID {
		t.Fatalf("history = %+v, want the stored assessment", history)
	}
}

func TestCheckSymptomsRequiresInput(t *testing.T) {
	svc := newSymptomFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream called for empty symptoms")
	})

	_, err := svc.CheckSymptoms(context.Background(), "a@example.com", "   ", uuid.New(), "patient", "")
	if !errors.Is(err, ErrSymptomsRequired) {
		t.Fatalf("error = %v, want ErrSymptomsRequired", err)
	}
}

func TestCheckSymptomsDisabled(t *testing.T) {
	log := zap.NewNop()
	auditSvc := NewAuditService(nopAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)
	repo := csvstore.NewAssessmentRepository(config.StorageConfig{DataDir: t.TempDir(), AssessmentsFile: "symptom_checks.csv"})
	svc := NewSymptomService(repo, auditSvc, &StoreGuard{}, config.SymptomCheckerConfig{Enabled: false}, log)

	_, err := svc.CheckSymptoms(context.Background(), "a@example.com", "headache", uuid.New(), "patient", "")
	if !errors.Is(err, ErrSymptomCheckerDisabled) {
		t.Fatalf("error = %v, want ErrSymptomCheckerDisabled", err)
	}
}

func TestCheckSymptomsBreakerOpensAfterFailures(t *testing.T) {
	svc := newSymptomFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx := context.Background()

	// MaxFailures consecutive upstream errors trip the breaker; the call
	// after that fails fast without reaching the server.
	for i := 0; i < 3; i++ {
		if _, err := svc.CheckSymptoms(ctx, "a@example.com", "fever", uuid.New(), "patient", ""); err == nil {
			t.Fatalf("call %d succeeded against a failing upstream", i)
		}
	}
	_, err := svc.CheckSymptoms(ctx, "a@example.com", "fever", uuid.New(), "patient", "")
	if !errors.Is(err, ErrAssessmentUnavailable) {
		t.Fatalf("error = %v, want ErrAssessmentUnavailable", err)
	}
}

func TestSymptomHistoryOwnership(t *testing.T) {
	svc := newSymptomFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelResponse("ok")))
	})
	ctx := context.Background()

	if _, err := svc.CheckSymptoms(ctx, "alice@example.com", "cough", uuid.New(), "patient", ""); err != nil {
		t.Fatalf("CheckSymptoms: %v", err)
	}

	if _, err := svc.History(ctx, "alice@example.com", "patient", "intruder@example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-patient history = %v, want ErrForbidden", err)
	}
	if _, err := svc.History(ctx, "alice@example.com", "doctor", "doc@example.com"); err != nil {
		t.Fatalf("staff history read: %v", err)
	}
}
