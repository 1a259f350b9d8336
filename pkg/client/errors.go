package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	msgUnexpected  = "An unexpected error occurred"
	msgServerError = "Server responded with an error"
	msgNoResponse  = "No response from server. Check your network connection."
)

// ErrMissingKey is returned when a login succeeds without handing out a token.
var ErrMissingKey = errors.New("login response did not include a key")

var (
	errEmptyUser = errors.New("current user response did not include user data")
	errMissingID = errors.New("response did not include an id")
)

// APIError is the normalized form of every failed backend call.
type APIError struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	Message    string
	Details    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether the backend rejected the credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsNoResponse reports whether the request never got an answer from the server.
func IsNoResponse(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 0 && apiErr.Message == msgNoResponse
}

func noResponseError(err error) *APIError {
	return &APIError{Message: msgNoResponse, Err: err}
}

func unexpectedError(status int, err error) *APIError {
	return &APIError{StatusCode: status, Message: msgUnexpected, Err: err}
}

// newResponseError builds an APIError from an error response body. The body may
// carry "message" (envelope), "detail" (framework errors) or per-field lists.
func newResponseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: msgServerError}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	if msg := stringField(payload, "message"); msg != "" {
		apiErr.Message = msg
	} else if detail := stringField(payload, "detail"); detail != "" {
		apiErr.Message = detail
	}

	var fields []string
	for key, raw := range payload {
		if key == "message" || key == "detail" || key == "data" {
			continue
		}
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err != nil || len(msgs) == 0 {
			continue
		}
		if key == "non_field_errors" {
			fields = append(fields, strings.Join(msgs, " "))
			continue
		}
		fields = append(fields, fmt.Sprintf("%s: %s", key, strings.Join(msgs, " ")))
	}
	sort.Strings(fields)
	apiErr.Details = strings.Join(fields, "; ")
	return apiErr
}

func stringField(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
