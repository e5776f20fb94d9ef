package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so the HTTP layer can map them to status codes.
type ErrorKind string

const (
	KindInvalidArgument           ErrorKind = "InvalidArgument"
	KindValidationFailed          ErrorKind = "ValidationFailed"
	KindNotFoundOrUnauthorized    ErrorKind = "NotFoundOrUnauthorized"
	KindNotFound                  ErrorKind = "NotFound"
	KindForbidden                 ErrorKind = "Forbidden"
	KindOverlapConflict           ErrorKind = "OverlapConflict"
	KindTimeConflict              ErrorKind = "TimeConflict"
	KindCapacityExceeded          ErrorKind = "CapacityExceeded"
	KindOutsideWorkingHours       ErrorKind = "OutsideWorkingHours"
	KindNoAvailability            ErrorKind = "NoAvailability"
	KindProviderNotWorkingThatDay ErrorKind = "ProviderNotWorkingThatDay"
	KindInvalidStatusTransition   ErrorKind = "InvalidStatusTransition"
	KindConcurrentModification    ErrorKind = "ConcurrentModification"
)

// EngineError is a typed, caller-facing failure. Field and Value name the
// offending input when there is one.
type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Value   any       `json:"value,omitempty"`
	Message string    `json:"message"`
}

func (e *EngineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any EngineError of the same kind, so errors.Is(err, &EngineError{Kind: k}) works.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

func newEngineError(kind ErrorKind, field string, value any, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(field string, value any, msg string) *EngineError {
	return newEngineError(KindInvalidArgument, field, value, "%s", msg)
}

func ValidationFailed(field string, value any, msg string) *EngineError {
	return newEngineError(KindValidationFailed, field, value, "%s", msg)
}

func NotFoundOrUnauthorized(resource string, id int64) *EngineError {
	return newEngineError(KindNotFoundOrUnauthorized, "id", id, "%s not found", resource)
}

func NotFound(resource string, id int64) *EngineError {
	return newEngineError(KindNotFound, "id", id, "%s not found", resource)
}

func Forbidden(field string, value any, msg string) *EngineError {
	return newEngineError(KindForbidden, field, value, "%s", msg)
}

func OverlapConflict(existing AvailabilitySlot) *EngineError {
	return newEngineError(KindOverlapConflict, "slotId", existing.ID,
		"overlaps existing slot %s-%s", existing.StartTime, existing.EndTime)
}

func TimeConflict(otherRequestID int64) *EngineError {
	return newEngineError(KindTimeConflict, "requestId", otherRequestID,
		"provider already has a booking overlapping this time")
}

func CapacityExceeded(date string, maxBookings int) *EngineError {
	return newEngineError(KindCapacityExceeded, "date", date,
		"provider has reached the maximum of %d bookings for this day", maxBookings)
}

func OutsideWorkingHours(date, start, end string) *EngineError {
	return newEngineError(KindOutsideWorkingHours, "preferredDate", date,
		"requested time %s-%s is outside the provider's working hours", start, end)
}

func NoAvailability(providerID int64) *EngineError {
	return newEngineError(KindNoAvailability, "providerId", providerID,
		"provider has no availability configured")
}

func ProviderNotWorkingThatDay(date string) *EngineError {
	return newEngineError(KindProviderNotWorkingThatDay, "preferredDate", date,
		"provider does not work on this day")
}

func InvalidStatusTransition(from, to RequestStatus) *EngineError {
	return newEngineError(KindInvalidStatusTransition, "status", string(from),
		"cannot transition from %q to %q", from, to)
}

func ConcurrentModification(requestID int64) *EngineError {
	return newEngineError(KindConcurrentModification, "id", requestID,
		"service request was modified concurrently, reload and retry")
}

// KindOf returns the kind of an EngineError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries an EngineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
