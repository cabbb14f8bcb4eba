package auth

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies API failures so that callers can branch on them
// (401 re-auth prompt, 0 connectivity message, 5xx generic retry, etc).
type ErrorKind string

const (
	// KindNetworkUnreachable means the server could not be reached at all.
	// The status of such an error is always 0.
	KindNetworkUnreachable ErrorKind = "network_unreachable"
	// KindEmptyResponseBody means the server replied without a body.
	KindEmptyResponseBody ErrorKind = "empty_response_body"
	// KindMalformedResponseBody means the body was not a valid envelope.
	KindMalformedResponseBody ErrorKind = "malformed_response_body"
	// KindHTTPError means the server replied with an error status or a
	// success:false envelope, carrying a server-supplied message.
	KindHTTPError ErrorKind = "http_error"
	// KindNoRefreshToken means a refresh was attempted with no refresh
	// token in the store.
	KindNoRefreshToken ErrorKind = "no_refresh_token"
	// KindSessionExpired means the session was terminated and the user
	// must authenticate again.
	KindSessionExpired ErrorKind = "session_expired"
)

// Error is the single typed error surfaced across component boundaries.
// Transport and parse failures are re-wrapped into it at the lowest layer,
// never propagated bare.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Payload []byte

	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status=%d %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying transport error, if any, so that context
// cancellations and deadlines stay detectable with errors.Is.
func (e *Error) Unwrap() error {
	return e.cause
}

func newNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkUnreachable,
		Status:  0,
		Message: err.Error(),
		cause:   err,
	}
}

func newEmptyBodyError(status int) *Error {
	return &Error{
		Kind:    KindEmptyResponseBody,
		Status:  status,
		Message: "server returned an empty response body",
	}
}

func newMalformedBodyError(status int, body []byte, err error) *Error {
	return &Error{
		Kind:    KindMalformedResponseBody,
		Status:  status,
		Message: err.Error(),
		Payload: body,
	}
}

func newHTTPError(status int, body []byte) *Error {
	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = "request failed"
	}
	return &Error{
		Kind:    KindHTTPError,
		Status:  status,
		Message: message,
		Payload: body,
	}
}

func newNoRefreshTokenError() *Error {
	return &Error{
		Kind:    KindNoRefreshToken,
		Message: "no refresh token available",
	}
}

func newSessionExpiredError() *Error {
	return &Error{
		Kind:    KindSessionExpired,
		Message: "session expired, authentication required",
	}
}

// GetError extracts the typed error from an error chain.
func GetError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isKind(err error, kind ErrorKind) bool {
	apiErr, ok := GetError(err)
	return ok && apiErr.Kind == kind
}

func IsNetworkUnreachable(err error) bool { return isKind(err, KindNetworkUnreachable) }
func IsNoRefreshToken(err error) bool     { return isKind(err, KindNoRefreshToken) }
func IsSessionExpired(err error) bool     { return isKind(err, KindSessionExpired) }

// IsUnauthorized reports whether the server rejected the credentials.
func IsUnauthorized(err error) bool {
	apiErr, ok := GetError(err)
	return ok && apiErr.Status == 401
}
