package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCanceled is returned when the caller's context is done before or while the request runs.
var ErrCanceled = errors.New("request canceled")

// TransportError reports a connection-level failure (DNS, refused connection, TLS).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response received with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d body: %s", e.URL, e.StatusCode, e.Body)
}

// DecodeError reports a body that is not valid JSON or does not match the target shape.
type DecodeError struct {
	URL  string
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// canceledError carries both ErrCanceled and the context cause.
type canceledError struct {
	URL   string
	cause error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("request to %s canceled: %v", e.URL, e.cause)
}

func (e *canceledError) Unwrap() []error { return []error{ErrCanceled, e.cause} }

// IsCanceled reports whether err is a cancellation outcome.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// classifyRequestError maps a failed request into the cancellation or transport outcome.
// A done caller context wins over whatever the transport reported; a transport
// timeout with a live context stays a transport error.
func classifyRequestError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &canceledError{URL: url, cause: ctxErr}
	}
	return &TransportError{URL: url, Err: err}
}

// BodySnippet trims body for inclusion in errors and logs.
func BodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
