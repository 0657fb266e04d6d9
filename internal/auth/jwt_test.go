package auth

import (
	"testing"
	"time"

	"amd-dialer/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:   "test-secret",
		JWTIssuer:   "amd-dialer",
		JWTAudience: "amd-api",
		TokenTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	tok, err := m.Issue(now, "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.OperatorID != "op-1" {
		t.Fatalf("unexpected operator: %s", claims.OperatorID)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	tok, err := m.Issue(now, "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	tok, err := other.Issue(time.Now(), "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{
		JWTSecret: "test-secret",
		JWTIssuer: "someone-else",
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	tok, err := other.Issue(time.Now(), "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected issuer mismatch error")
	}
}

func TestIssueRequiresOperator(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Issue(time.Now(), ""); err == nil {
		t.Fatalf("expected error for empty operator")
	}
}
