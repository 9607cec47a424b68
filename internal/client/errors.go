package client

import (
	"errors"
	"fmt"
	"net/http"

	"dealeraccess/internal/domain"
)

// StatusError is returned for any non-2xx response. Its message has the
// form "<status>: <body-or-statusText>".
type StatusError struct {
	Code int
	Body string
}

func newStatusError(code int, body []byte) *StatusError {
	text := string(body)
	if text == "" {
		text = http.StatusText(code)
	}
	return &StatusError{Code: code, Body: text}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Body)
}

// Is maps well-known statuses onto the domain sentinels.
func (e *StatusError) Is(target error) bool {
	switch e.Code {
	case http.StatusUnauthorized:
		return target == domain.ErrUnauthorized
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusTooManyRequests:
		return target == domain.ErrRateLimited
	}
	return false
}

func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
