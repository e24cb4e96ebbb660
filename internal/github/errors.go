package github

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/tidwall/gjson"
)

// APIError is a non-201 answer from GitHub. It unwraps to the errdefs class
// matching the status, so callers can use errdefs.IsAlreadyExists and friends.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
	kind       error
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Message:    gjson.GetBytes(body, "message").String(),
	}
	for _, item := range gjson.GetBytes(body, "errors").Array() {
		switch {
		case item.Type == gjson.String:
			e.Details = append(e.Details, item.String())
		case item.Get("message").Exists():
			e.Details = append(e.Details, item.Get("message").String())
		default:
			e.Details = append(e.Details, strings.TrimSpace(item.Get("field").String()+" "+item.Get("code").String()))
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.kind = classify(status, e.Details)
	return e
}

func classify(status int, details []string) error {
	switch {
	case status == http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case status == http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case status == http.StatusNotFound:
		return errdefs.ErrNotFound
	case status == http.StatusUnprocessableEntity:
		for _, d := range details {
			if strings.Contains(d, "already exists") {
				return errdefs.ErrAlreadyExists
			}
		}
		return errdefs.ErrInvalidArgument
	case status == http.StatusTooManyRequests:
		return errdefs.ErrResourceExhausted
	case status >= 500:
		return errdefs.ErrUnavailable
	default:
		return errdefs.ErrUnknown
	}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("github: %d %s", e.StatusCode, e.Message)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.kind
}
