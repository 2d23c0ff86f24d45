package trivia

import (
	"fmt"
	"net/http"
)

// NetworkError reports a failed request to the question bank. StatusCode is
// zero when no HTTP response was received.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("question bank request failed: %v", e.Err)
	}
	return fmt.Sprintf("question bank returned HTTP %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError reports a question bank payload that does not have the
// expected shape.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed question bank response: %s: %v", e.Reason, e.Err)
	}
	return "malformed question bank response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
