package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrUnauthorized is wrapped by errors for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: status %d", e.Status)
	}
	return fmt.Sprintf("API error: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// newError builds an Error, reading the message from a JSON body's "message"
// or "error" field, or from a plain-text body.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
				e.Message = r.String()
				return e
			}
		}
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	return e
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return "Unknown error"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.Status)
	}
	return err.Error()
}

// IsCanceled reports whether err stems from a canceled request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
