package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies every failure the client can surface. Callers never see a
// raw transport or parsing error.
type Kind int

const (
	KindInvalidURL Kind = iota
	KindNetwork
	KindInvalidResponse
	KindDecoding
	KindServer
	KindUnauthorized
	KindEncoding
)

// Error is the normalized failure type returned by every Client method.
type Error struct {
	Kind    Kind
	Message string // server-supplied message for KindServer
	Err     error  // underlying cause for KindNetwork / KindDecoding / KindEncoding
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return "invalid URL"
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case KindInvalidResponse:
		return "invalid response from server"
	case KindDecoding:
		return fmt.Sprintf("failed to decode response: %v", e.Err)
	case KindServer:
		return fmt.Sprintf("server error: %s", e.Message)
	case KindUnauthorized:
		return "unauthorized"
	case KindEncoding:
		return fmt.Sprintf("failed to encode request: %v", e.Err)
	}
	return "unknown API error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match against the exported sentinel values by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
)

// UserMessage translates the error into the string shown to the user.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidURL:
		return "Invalid URL - please check your server configuration."
	case KindNetwork:
		if IsTimeout(e) {
			return "Connection timed out. Please try again."
		}
		return "Cannot connect to server. Please check your internet connection."
	case KindInvalidResponse:
		return "The server returned an unexpected response."
	case KindDecoding:
		return "The server returned an unexpected response."
	case KindServer:
		return e.Message
	case KindUnauthorized:
		// Fixed text regardless of the underlying payload; token invalidation
		// is handled globally.
		return "Your session has expired. Please log in again."
	}
	return "An unknown error occurred. Please try again."
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

// IsTimeout reports whether err wraps a timed-out network operation.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ServerMessage extracts the server-supplied message from a structured
// failure, or "" when err is not one.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindServer {
		return apiErr.Message
	}
	return ""
}
