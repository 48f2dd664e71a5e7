package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gstdash/internal/log"
)

var (
	// ErrNetwork matches every NetworkError.
	ErrNetwork = errors.New("network error")
	// ErrRequestFailed matches every RequestFailedError.
	ErrRequestFailed = errors.New("request failed")
	// ErrMalformedResponse is returned when a body is not the expected envelope.
	ErrMalformedResponse = errors.New("malformed response")
)

// NetworkError is returned when no HTTP response was received.
type NetworkError struct {
	Resource string
	URL      string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: GET %s: %v", e.Resource, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) ErrorType() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return log.ErrorTypeTimeout
	}
	if errors.Is(e.Err, context.Canceled) {
		return log.ErrorTypeCanceled
	}
	return log.ErrorTypeNetwork
}

// RequestFailedError is returned for any non-2xx response.
type RequestFailedError struct {
	Resource   string
	URL        string
	StatusCode int
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s: GET %s: status %d %s", e.Resource, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

func (e *RequestFailedError) ErrorType() string {
	if e.StatusCode == http.StatusNotFound {
		return log.ErrorTypeNotFound
	}
	return log.ErrorTypeUpstream
}

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.StatusCode
	}
	return 0
}
