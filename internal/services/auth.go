package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues a signed identity token. Wired to the JWT middleware by
// the caller so this package stays free of HTTP concerns.
type TokenSigner func(name string, admin bool, ttl time.Duration) (string, error)

// AuthService issues tokens for the two identity shapes the dashboard knows:
// a self-asserted respondent display name (never verified, it only selects
// which row "yours" is) and an admin session for the report builder.
type AuthService struct {
	adminHash []byte
	signToken TokenSigner
	filter    *ContentFilter
	tokenTTL  time.Duration
}

func NewAuthService(adminHash string, signer TokenSigner, filter *ContentFilter) *AuthService {
	return &AuthService{
		adminHash: []byte(adminHash),
		signToken: signer,
		filter:    filter,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// ClaimIdentity signs a token for a self-asserted display name. The name
// passes through the content filter so the dashboard never reflects unsafe
// text back.
func (s *AuthService) ClaimIdentity(displayName string) (string, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return "", NewInvalidError("display name required")
	}
	if len([]rune(name)) > 100 {
		return "", NewInvalidError("display name too long")
	}
	if verdict := s.filter.Inspect(name); !verdict.Safe {
		return "", NewInvalidError("display name rejected: " + verdict.Reason)
	}
	return s.signToken(name, false, s.tokenTTL)
}

// AdminLogin checks the password against the configured bcrypt hash and
// issues an admin token.
func (s *AuthService) AdminLogin(password string) (string, error) {
	if len(s.adminHash) == 0 {
		return "", NewUnauthorizedError("admin access not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return "", NewUnauthorizedError("invalid credentials")
	}
	return s.signToken("admin", true, 12*time.Hour)
}
