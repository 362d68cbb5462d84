package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/spf13/cast"
)

// ErrNotFound matches any APIError with status 404
var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx response. Message comes from the body's "message"
// field when present, otherwise "Error <status>: <statusText>".
type APIError struct {
	Status  int
	Message string
	Errors  []string // field errors from a validation response, if any
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// newAPIError builds an APIError from a response body. Unparseable bodies
// are treated as {}.
func newAPIError(status int, body []byte) *APIError {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		payload = map[string]any{}
	}

	apiErr := &APIError{Status: status}
	if msg, ok := payload["message"].(string); ok && msg != "" {
		apiErr.Message = msg
	} else {
		apiErr.Message = fmt.Sprintf("Error %d: %s", status, http.StatusText(status))
	}

	// Laravel-style {"errors": {"field": ["msg", ...]}}
	if fieldErrs, ok := payload["errors"].(map[string]any); ok {
		fields := make([]string, 0, len(fieldErrs))
		for field := range fieldErrs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			switch msgs := fieldErrs[field].(type) {
			case []any:
				for _, m := range msgs {
					apiErr.Errors = append(apiErr.Errors, cast.ToString(m))
				}
			default:
				apiErr.Errors = append(apiErr.Errors, cast.ToString(msgs))
			}
		}
	}

	return apiErr
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// shouldFallback: 404s and transport failures move on to the next
// candidate endpoint; other HTTP errors are final.
func shouldFallback(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	return true
}
