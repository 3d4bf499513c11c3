package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired is joined into a call's error when its 401 could not be
// recovered by refreshing; the stored session has been cleared by then.
var ErrSessionExpired = errors.New("session expired")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	// Detail is the server's structured message, empty if none was sent.
	Detail string
	Body   string
}

func (e *HTTPError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// parseDetail extracts the message from a FastAPI-style error body.
// detail may be a string or a list of validation errors with "msg" fields.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(envelope.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return envelope.Error
}
