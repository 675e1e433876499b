package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain"
)

func testManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters-long",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "portal-test",
	})
}

func TestTokenPairRoundTrip(t *testing.T) {
	m := testManager()

	want := &domain.Claims{
		UserID:       uuid.New(),
		Email:        "doc@example.com",
		Role:         domain.RoleDoctor,
		DoctorName:   "Smith",
		PatientEmail: "",
	}

	pair, err := m.GenerateTokenPair(want)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", pair.TokenType)
	}
	if !pair.ExpiresAt.After(time.Now()) {
		t.Error("access token already expired at issue time")
	}

	got, err := m.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.Role != want.Role || got.DoctorName != want.DoctorName {
		t.Errorf("claims = %+v, want %+v", got, want)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := testManager()

	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if _, err := m.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("validating refresh as access = %v, want ErrTokenTypeMismatch", err)
	}
	if _, err := m.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("validating access as refresh = %v, want ErrTokenTypeMismatch", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := testManager()
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	other := NewJWTManager(config.JWTConfig{
		Secret:          "a-completely-different-signing-secret!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "portal-test",
	})
	if _, err := other.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret validation = %v, want ErrTokenInvalid", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters-long",
		AccessTokenTTL:  -1 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "portal-test",
	})

	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if _, err := m.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token validation = %v, want ErrTokenExpired", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	m := testManager()
	if _, err := m.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage token validation = %v, want ErrTokenInvalid", err)
	}
}
