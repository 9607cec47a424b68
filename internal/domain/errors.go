package domain

import "errors"

// Sentinel errors used across service boundaries.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnknownRole   = errors.New("unknown role")
	ErrInvalidTenant = errors.New("invalid tenant")
)

// ErrorResponse is the standard JSON error envelope returned to clients.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
