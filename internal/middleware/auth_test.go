package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("test-secret")
	tok, err := s.Sign("Tester", false, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := s.parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Name != "Tester" || claims.Admin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	s := NewSigner("test-secret")
	tok, err := s.Sign("Tester", false, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewSigner("other-secret").parse(tok); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}

	expired, err := s.Sign("Tester", false, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.parse(expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestWithAuthAndRequireAdmin(t *testing.T) {
	s := NewSigner("test-secret")

	var sawName string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawName, _ = NameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	adminTok, _ := s.Sign("root", true, time.Hour)
	userTok, _ := s.Sign("Tester", false, time.Hour)

	handler := s.WithAuth(RequireAdmin(inner))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", rec.Code)
	}

	// Non-admin token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("user token: status %d", rec.Code)
	}

	// Admin token.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin token: status %d", rec.Code)
	}
	if sawName != "root" {
		t.Fatalf("name from context = %q", sawName)
	}

	// Garbage token passes through unauthenticated.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", rec.Code)
	}
}
