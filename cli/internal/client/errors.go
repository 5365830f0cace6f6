package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is any failed call: StatusCode 0 means the request never got
// an HTTP response (DNS, refused connection, timeout, cancellation).
type RequestError struct {
	StatusCode int
	Message    string
	Details    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return "request failed: " + e.Message
	}
	if e.Details != "" && e.Details != e.Message {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ValidationError lists required fields that were blank. It is returned
// before any request is sent.
type ValidationError struct {
	Part   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Part, strings.Join(e.Fields, ", "))
}

func transportError(err error) *RequestError {
	return &RequestError{Message: err.Error(), Err: err}
}

// parseError builds a RequestError from a non-2xx response. The message comes
// from "error" (proxy envelope) or "detail" (backend) when the body is JSON.
func parseError(status int, body []byte) *RequestError {
	e := &RequestError{StatusCode: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = stringField(payload, "error")
		if e.Message == "" {
			e.Message = stringField(payload, "detail")
		}
		e.Details = unwrapDetail(stringField(payload, "details"))
	}

	if e.Message == "" && e.Details != "" {
		e.Message, e.Details = e.Details, ""
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return e
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		// FastAPI validation errors put a list under "detail".
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// unwrapDetail extracts "detail" when the proxy relayed a raw backend JSON error.
func unwrapDetail(details string) string {
	var inner map[string]any
	if err := json.Unmarshal([]byte(details), &inner); err == nil {
		if d := stringField(inner, "detail"); d != "" {
			return d
		}
	}
	return details
}
