package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dealeraccess/internal/auth"
	"dealeraccess/internal/domain"
)

const secret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	u, err := domain.NewUserContext("mgr-1", domain.RoleSalesManager, []string{"north"}, []string{"rep-1"}, "exec-1")
	if err != nil {
		t.Fatalf("NewUserContext: %v", err)
	}

	tok, err := auth.IssueToken(secret, u, 15*time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := auth.ParseToken(secret, tok, 0)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	got, err := claims.UserContext()
	if err != nil {
		t.Fatalf("UserContext: %v", err)
	}
	if got.UserID != "mgr-1" || got.Role.ID != domain.RoleSalesManager {
		t.Errorf("unexpected user %q role %q", got.UserID, got.Role.ID)
	}
	if len(got.Territories) != 1 || got.Territories[0] != "north" {
		t.Errorf("unexpected territories %v", got.Territories)
	}
	if got.ManagerID != "exec-1" {
		t.Errorf("unexpected manager %q", got.ManagerID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	u, _ := domain.NewUserContext("rep-1", domain.RoleSalesRep, nil, nil, "")
	tok, _ := auth.IssueToken(secret, u, time.Minute)

	_, err := auth.ParseToken("other-secret", tok, 0)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	u, _ := domain.NewUserContext("rep-1", domain.RoleSalesRep, nil, nil, "")
	tok, err := auth.IssueTokenAt(secret, u, time.Now().Add(-2*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("IssueTokenAt: %v", err)
	}

	if _, err := auth.ParseToken(secret, tok, 30*time.Second); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestIssueTokenDefaultsTTL(t *testing.T) {
	u, _ := domain.NewUserContext("rep-1", domain.RoleSalesRep, nil, nil, "")
	tok, err := auth.IssueToken(secret, u, 0)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := auth.ParseToken(secret, tok, 0)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 24*time.Hour {
		t.Errorf("expected 24h default ttl, got %v", ttl)
	}
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "rep-1", "role": "sales_rep", "iss": "dealeraccess",
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := auth.ParseToken(secret, tok, 0); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}

func TestParseTokenRequiresExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x", "role": "admin", "iss": "dealeraccess",
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	_, err = auth.ParseToken(secret, tok, 30*time.Second)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token without exp, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenRequiredClaimMissing) {
		t.Errorf("expected missing-claim cause, got %v", err)
	}
}

func TestClaimsUnknownRole(t *testing.T) {
	c := &auth.Claims{Role: "janitor", RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}}
	if _, err := c.UserContext(); !errors.Is(err, domain.ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestClaimsMissingSubject(t *testing.T) {
	c := &auth.Claims{Role: domain.RoleExecutive}
	if _, err := c.UserContext(); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
