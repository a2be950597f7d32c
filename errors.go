package sensorpush

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned in non-blocking mode when a request would
	// exceed the minimum interval between data requests.
	ErrRateLimited = errors.New("request rate limited")
	// ErrMissingCredentials is returned when authorizing without an email or
	// password.
	ErrMissingCredentials = errors.New("missing email or password")
	// ErrNoAuthorization is returned when an access token is requested before
	// an authorization code was obtained.
	ErrNoAuthorization = errors.New("no authorization code")
	// ErrNoAccessToken is returned when the token endpoint answers without a
	// token.
	ErrNoAccessToken = errors.New("no access token")
)

// APIError is a non-2xx answer from the SensorPush API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("server returned %d: %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Message != "":
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
}
