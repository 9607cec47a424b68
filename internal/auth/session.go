package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dealeraccess/internal/domain"
)

const issuer = "dealeraccess"

// Claims carries the session's role assignment.
type Claims struct {
	Role        string   `json:"role"`
	Territories []string `json:"territories,omitempty"`
	Team        []string `json:"team,omitempty"`
	ManagerID   string   `json:"manager_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 session token for u. A non-positive ttl
// defaults to 24h.
func IssueToken(secret string, u domain.UserContext, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return IssueTokenAt(secret, u, time.Now(), ttl)
}

// IssueTokenAt signs a token issued at now and valid for ttl.
func IssueTokenAt(secret string, u domain.UserContext, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Role:        u.Role.ID,
		Territories: u.Territories,
		Team:        u.TeamMembers,
		ManagerID:   u.ManagerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an HS256 session token.
func ParseToken(secret, tokenStr string, leeway time.Duration) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// UserContext resolves the claims against the role catalog.
func (c *Claims) UserContext() (domain.UserContext, error) {
	if c.Subject == "" {
		return domain.UserContext{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return domain.NewUserContext(c.Subject, c.Role, c.Territories, c.Team, c.ManagerID)
}
