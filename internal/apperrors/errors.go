// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and retry decisions.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindNotAcceptable       Kind = "not_acceptable"
	KindUpstreamData        Kind = "upstream_data"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindStorage             Kind = "storage"
	KindInternal            Kind = "internal"
)

// Error carries a kind, a human message and optional structured details
// (field maps for validation errors, batched id lists, current status on
// rejected transitions).
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func WithDetails(kind Kind, message string, details interface{}) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "access denied"}
}

// NotAcceptable reports an illegal status transition; the current status is
// carried in Details for diagnostics.
func NotAcceptable(message string, currentStatus string) *Error {
	return &Error{
		Kind:    KindNotAcceptable,
		Message: message,
		Details: map[string]string{"current_status": currentStatus},
	}
}

func UpstreamData(message string, err error) *Error {
	return &Error{Kind: KindUpstreamData, Message: message, Err: err}
}

func UpstreamUnavailable(message string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message, Err: err}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf extracts the kind of err, unwrapping as needed. Unclassified errors
// report KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func DetailsOf(err error) interface{} {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// IsRetryable reports whether err is worth retrying: transient upstream or
// database failures are, request-level failures are not.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindForbidden, KindNotAcceptable, KindUpstreamData, KindStorage:
		return false
	}
	return true
}
