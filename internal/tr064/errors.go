package tr064

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed SOAP exchange. The set is closed: every
// failure a Call can produce maps to exactly one kind.
type ErrorKind int

const (
	// KindNoResponse means the request never produced a usable HTTP
	// response (connection refused, DNS failure, timeout).
	KindNoResponse ErrorKind = iota + 1

	// KindHTTPStatus means the control point answered with a non-2xx
	// status code.
	KindHTTPStatus

	// KindMalformedResponse means the body could not be parsed as XML or
	// an expected response element is missing.
	KindMalformedResponse
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindNoResponse:
		return "no_response"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error describes a failed SOAP action.
type Error struct {
	Kind       ErrorKind
	Action     string
	StatusCode int // only set for KindHTTPStatus
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("tr064: action %s returned status %d", e.Action, e.StatusCode)
	default:
		return fmt.Sprintf("tr064: action %s failed (%s): %v", e.Action, e.Kind, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or 0 when err does not wrap an
// *Error.
func KindOf(err error) ErrorKind {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return 0
}

func missingElementError(action, element string) *Error {
	return &Error{
		Kind:   KindMalformedResponse,
		Action: action,
		Err:    fmt.Errorf("element %s missing from response", element),
	}
}
