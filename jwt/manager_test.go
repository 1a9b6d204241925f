package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:    time.Hour,
		Key:    []byte(strings.Repeat("k", 32)),
		Issuer: "bar-api",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerRejectsShortKey(t *testing.T) {
	if _, err := NewManager(Config{TTL: time.Hour, Key: []byte("short")}); err == nil {
		t.Fatal("expected short key to be rejected")
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := testManager(t)

	token, err := m.Issue("u1", "owner@bar.test", time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UID != "u1" || claims.Email != "owner@bar.test" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	m := testManager(t)
	other, err := NewManager(Config{TTL: time.Hour, Key: []byte(strings.Repeat("x", 32)), Issuer: "bar-api"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := other.Issue("u1", "", time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestExpired(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	stale, err := m.Issue("u1", "", now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	fresh, err := m.Issue("u1", "", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !Expired(stale, now, 30*time.Second) {
		t.Fatal("expected stale token to be expired")
	}
	if Expired(fresh, now, 30*time.Second) {
		t.Fatal("expected fresh token to be valid")
	}
	if Expired("opaque-token", now, 0) {
		t.Fatal("opaque tokens must never be reported expired")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, err := Inspect("abc"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT, got %v", err)
	}
	if _, err := Inspect("a.b.c"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT for garbage segments, got %v", err)
	}
}
