// Package apperr carries the domain error model: a typed error value with
// a status classification, criticality, trace id and an optional recovery
// suggestion, rendered outward as the common error envelope. Constructors
// are pure; logging happens at the HTTP boundary.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalid
	KindStockConflict
	KindInsufficientStock
	KindUnavailable
	KindDataIntegrity
)

type Criticality string

const (
	Critical    Criticality = "critical"
	NonCritical Criticality = "non-critical"
	Unknown     Criticality = "unknown"
)

// httpStatus is the explicit kind to transport status mapping.
var httpStatus = map[Kind]int{
	KindInternal:          http.StatusInternalServerError,
	KindNotFound:          http.StatusNotFound,
	KindInvalid:           http.StatusBadRequest,
	KindStockConflict:     http.StatusConflict,
	KindInsufficientStock: http.StatusUnprocessableEntity,
	KindUnavailable:       http.StatusServiceUnavailable,
	KindDataIntegrity:     http.StatusBadRequest,
}

type Error struct {
	Kind        Kind
	Criticality Criticality
	TraceID     string
	Detail      string
	Suggestion  string

	// SubDetails holds additional critical entries for the envelope, one
	// per aggregated validation failure.
	SubDetails []string

	// Rewrapped is set when the cause was itself an *Error. The inner
	// trace id is preserved and the boundary logs the rewrap as an
	// anomaly.
	Rewrapped bool

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an error with a fresh trace id.
func New(kind Kind, detail, suggestion string) *Error {
	return &Error{
		Kind:        kind,
		Criticality: Critical,
		TraceID:     uuid.NewString(),
		Detail:      detail,
		Suggestion:  suggestion,
	}
}

// Wrap builds an error around a cause. If the cause is already an *Error
// its trace id is preserved and the result is flagged as rewrapped; a
// domain error wrapping another domain error indicates a layering bug
// upstream and must be surfaced in logs, never silently duplicated.
func Wrap(kind Kind, detail, suggestion string, cause error) *Error {
	e := New(kind, detail, suggestion)
	e.Err = cause
	if inner, ok := cause.(*Error); ok && inner != nil {
		e.TraceID = inner.TraceID
		e.Rewrapped = true
	}
	return e
}

func NotFound(resource string, id any) *Error {
	return New(KindNotFound, fmt.Sprintf("%s not found with ID: %v", resource, id), "")
}

func Invalid(detail string) *Error {
	return New(KindInvalid, detail, "Correct the order data and try again")
}

func DataIntegrity(cause error) *Error {
	return Wrap(KindDataIntegrity,
		"A data integrity constraint was violated",
		"Check that your data doesn't violate any unique constraints",
		cause)
}

func Internal(cause error) *Error {
	return Wrap(KindInternal,
		"Internal server error",
		"Please contact support if the problem persists",
		cause)
}
