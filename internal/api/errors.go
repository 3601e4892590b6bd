package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Messages shown to the user for errors without a server supplied message.
const (
	MessageTimeout     = "request timed out"
	MessageUnreachable = "cannot reach server"
	MessageUnknown     = "an unknown error occurred"
)

// Error is a response the server answered with a non-2xx status.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	if e.Code == "" {
		return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned status %d: %s: %s", e.Status, e.Code, e.Message)
}

// TransportError is a request that never received a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request gave up waiting.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Message maps err onto the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.Timeout() {
			return MessageTimeout
		}
		return MessageUnreachable
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return MessageUnknown
}

// parseError builds an *Error from a failed response body. The detail field
// may be an object with a message or a bare string.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return e
	}
	var detail ErrorDetail
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		e.Code, e.Message = detail.Code, detail.Message
		return e
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		e.Message = text
	}
	return e
}
