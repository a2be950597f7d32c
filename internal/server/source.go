package server

import (
	"context"
	"time"
)

// Source is one SensorPush endpoint exposed by the server.
type Source interface {
	Name() string
	Fetch(ctx context.Context) *Response
	DegradedTTL() time.Duration
}

// Response is what the server returns for a source. The cache stamps
// Timestamp and ExpiresAt when the response is stored.
type Response struct {
	Data      any           `json:"data,omitempty"`
	Timestamp string        `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
	Degraded  bool          `json:"degraded,omitempty"`
	TTL       time.Duration `json:"-"`
	ExpiresAt time.Time     `json:"-"`
}

// Create a successful response kept for ttl
func NewResponse(data any, ttl time.Duration) *Response {
	return &Response{Data: data, TTL: ttl}
}

// Create an error response kept for ttl
func ErrorResponse(msg string, ttl time.Duration) *Response {
	return &Response{Error: msg, TTL: ttl}
}

// Keep the data of a successful response around for degraded mode
func BackupResponse(original *Response, expiresAt time.Time) *Response {
	return &Response{
		Data:      original.Data,
		Timestamp: original.Timestamp,
		ExpiresAt: expiresAt,
	}
}

// Serve the last good data along with the current error
func DegradedResponse(backup *Response, err *Response) *Response {
	return &Response{
		Data:      backup.Data,
		Timestamp: backup.Timestamp,
		Error:     err.Error,
		Degraded:  true,
		TTL:       err.TTL,
	}
}

// Serve the last good data while a refresh is in flight
func StaleResponse(backup *Response) *Response {
	return &Response{
		Data:      backup.Data,
		Timestamp: backup.Timestamp,
		Degraded:  true,
		ExpiresAt: backup.ExpiresAt,
	}
}
