package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/assessment"
)

var (
	ErrSymptomCheckerDisabled = errors.New("symptom checker is not enabled")
	ErrSymptomsRequired       = errors.New("symptom description is required")
	ErrAssessmentUnavailable  = errors.New("assessment service temporarily unavailable")
)

const symptomPrompt = `You are a cautious medical triage assistant for a hospital portal.
A patient describes their symptoms. Respond with:
1. A short plain-language summary of what the symptoms could indicate.
2. Whether the patient should seek urgent care, book a routine appointment, or self-monitor.
3. A reminder that this is not a diagnosis and a clinician must confirm.
Keep the answer under 200 words. Patient's description: %s`

// SymptomService runs preliminary symptom assessments against an external
// generative-language API and records each completed check. Outbound calls
// sit behind a circuit breaker so a degraded upstream cannot tie up request
// handlers.
type SymptomService struct {
	repo     assessment.Repository
	auditSvc *AuditService
	guard    *StoreGuard
	cfg      config.SymptomCheckerConfig
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
	log      *zap.Logger
}

func NewSymptomService(repo assessment.Repository, auditSvc *AuditService, guard *StoreGuard, cfg config.SymptomCheckerConfig, log *zap.Logger) *SymptomService {
	maxFailures := uint32(cfg.MaxFailures)
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "symptom-checker",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &SymptomService{
		repo:     repo,
		auditSvc: auditSvc,
		guard:    guard,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		log:      log,
	}
}

// CheckSymptoms calls the upstream model, persists the resulting assessment,
// and returns it. The record is written even when audit logging lags: the
// store write happens synchronously under the guard.
func (s *SymptomService) CheckSymptoms(ctx context.Context, email, symptoms string, callerID uuid.UUID, callerRole string, ip string) (*assessment.Assessment, error) {
	if !s.cfg.Enabled {
		return nil, ErrSymptomCheckerDisabled
	}
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, ErrSymptomsRequired
	}

	guidance, err := s.breaker.Execute(func() (string, error) {
		return s.generate(ctx, symptoms)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.Warn("symptom checker circuit open", zap.Error(err))
			return nil, ErrAssessmentUnavailable
		}
		s.log.Error("symptom checker upstream call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAssessmentUnavailable, err)
	}

	record := assessment.Assessment{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Symptoms:  symptoms,
		Guidance:  guidance,
		Model:     s.cfg.Model,
		CreatedAt: time.Now().UTC(),
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading assessments: %w", err)
	}
	if err := s.repo.Save(ctx, append(records, record)); err != nil {
		return nil, fmt.Errorf("saving assessment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "assessment",
		ResourceID: record.ID.String(), IPAddress: ip,
	})

	return &record, nil
}

// History returns a patient's past assessments, newest first. Patients may
// only read their own history.
func (s *SymptomService) History(ctx context.Context, email string, callerRole, callerEmail string) ([]assessment.Assessment, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if callerRole == "patient" && !strings.EqualFold(callerEmail, email) {
		return nil, ErrForbidden
	}

	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading assessments: %w", err)
	}

	matched := make([]assessment.Assessment, 0)
	for _, r := range records {
		if strings.EqualFold(r.Email, email) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, nil
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (s *SymptomService) generate(ctx context.Context, symptoms string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: fmt.Sprintf(symptomPrompt, symptoms)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var out strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	guidance := strings.TrimSpace(out.String())
	if guidance == "" {
		return "", errors.New("model returned empty guidance")
	}
	return guidance, nil
}
