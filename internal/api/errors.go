package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoRefreshToken means a 401 arrived and the session has nothing to
	// refresh with. The caller should route the user to login.
	ErrNoRefreshToken = errors.New("no refresh token in session")

	// ErrSessionExpired means the refresh attempt itself was rejected.
	ErrSessionExpired = errors.New("session expired")

	// ErrTimeout means no response arrived within the configured bound.
	ErrTimeout = errors.New("request timed out")
)

// HTTPError is any non-2xx response not handled by the auth retry path.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Message extracts the backend-provided error text, if any. The backend
// reports causes as {"error": "..."} or {"cause": "..."}.
func (e *HTTPError) Message() string {
	var payload struct {
		Error string `json:"error"`
		Cause string `json:"cause"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	if payload.Cause != "" {
		return payload.Cause
	}
	return payload.Error
}

// NetworkError is a transport-level failure: no HTTP response at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
