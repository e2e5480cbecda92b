package services

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func recordingSigner(lastName *string, lastAdmin *bool) TokenSigner {
	return func(name string, admin bool, _ time.Duration) (string, error) {
		*lastName = name
		*lastAdmin = admin
		return "signed-token", nil
	}
}

func TestClaimIdentity(t *testing.T) {
	var name string
	var admin bool
	svc := NewAuthService("", recordingSigner(&name, &admin), NewContentFilter())

	token, err := svc.ClaimIdentity("  Tester  ")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if token != "signed-token" {
		t.Fatalf("token = %q", token)
	}
	if name != "Tester" || admin {
		t.Fatalf("signed name=%q admin=%v", name, admin)
	}
}

func TestClaimIdentityRejections(t *testing.T) {
	var name string
	var admin bool
	svc := NewAuthService("", recordingSigner(&name, &admin), NewContentFilter())

	cases := []string{
		"",
		"   ",
		strings.Repeat("x", 101),
		"<script>alert(1)</script>",
	}
	for _, c := range cases {
		if _, err := svc.ClaimIdentity(c); err == nil {
			t.Fatalf("name %.30q accepted", c)
		} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
			t.Fatalf("name %.30q error = %v", c, err)
		}
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	var name string
	var admin bool
	svc := NewAuthService(string(hash), recordingSigner(&name, &admin), NewContentFilter())

	if _, err := svc.AdminLogin("wrong"); err == nil {
		t.Fatalf("wrong password accepted")
	}
	token, err := svc.AdminLogin("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "signed-token" || !admin || name != "admin" {
		t.Fatalf("token=%q name=%q admin=%v", token, name, admin)
	}
}

func TestAdminLoginUnconfigured(t *testing.T) {
	var name string
	var admin bool
	svc := NewAuthService("", recordingSigner(&name, &admin), NewContentFilter())
	if _, err := svc.AdminLogin("anything"); err == nil {
		t.Fatalf("login succeeded with no configured hash")
	} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("error = %v", err)
	}
}
