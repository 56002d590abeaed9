package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event domain. Use errors.Is() to check these.
var (
	// ErrInvalidEvent matches every ValidationError.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrMalformedPayload indicates a channel payload that could not be decoded into an event.
	ErrMalformedPayload = errors.New("malformed event payload")

	// ErrDuplicateEventID indicates an insert whose id is already present in the event store.
	ErrDuplicateEventID = errors.New("duplicate event id")

	// ErrEventAlreadyReported indicates the relay has already accepted an event with this id.
	ErrEventAlreadyReported = errors.New("event already reported")

	// ErrEventNotFound indicates no reported event has the requested id.
	ErrEventNotFound = errors.New("event not found")

	// ErrNotPlacing indicates a placement operation attempted while placement mode is off.
	ErrNotPlacing = errors.New("placement mode is not active")

	// ErrUnknownField indicates a draft edit naming a field the form does not have.
	ErrUnknownField = errors.New("unknown draft field")

	// ErrInvalidFieldValue indicates a draft edit whose value cannot be parsed for its field.
	ErrInvalidFieldValue = errors.New("invalid draft field value")
)

// ValidationKind classifies why a candidate event was rejected.
type ValidationKind string

const (
	MissingCoordinates ValidationKind = "missing_coordinates"
	OutOfRange         ValidationKind = "out_of_range"
	UnknownEventType   ValidationKind = "unknown_event_type"
	EmptyID            ValidationKind = "empty_id"
)

// ValidationError is a user-correctable rejection of a candidate event.
// Field names the offending attribute using its wire name.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid event: %s", e.Kind)
	}
	return fmt.Sprintf("invalid event: %s: %s", e.Kind, e.Field)
}

// Is makes every ValidationError match ErrInvalidEvent.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEvent
}

// ValidationKindOf returns the kind of the ValidationError wrapped in err, if any.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}
