package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	ErrNotFound          = errors.New("upstream: not found")
	ErrNetwork           = errors.New("upstream: request failed")
	ErrMalformedResponse = errors.New("upstream: malformed response")
)

// StatusError is a non-2xx answer from the upstream API.
type StatusError struct {
	StatusCode int
	// Message is upstream's own {"message": ...} when it sent one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.StatusCode)
}

// StatusMessage is what gets shown to the caller: upstream's message,
// or the generic "API responded with status: N".
func (e *StatusError) StatusMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "API responded with status: " + strconv.Itoa(e.StatusCode)
}

// Is makes a 404 StatusError match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func (e *StatusError) MetricClass() string {
	return "http_" + strconv.Itoa(e.StatusCode)
}

// Describe turns an upstream failure into the message shown to callers.
func Describe(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.StatusMessage()
	case errors.Is(err, ErrMalformedResponse):
		return "invalid response from upstream"
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream request timed out"
	case errors.Is(err, ErrNetwork):
		return "upstream request failed"
	default:
		return "Unknown error"
	}
}
