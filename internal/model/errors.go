package model

import (
	"fmt"
	"time"
)

// The error set below is closed: the HTTP layer maps every variant to a status
// code, and anything else is treated as an unexpected storage failure.

// NotFoundError reports a missing event, user or registration.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// PastEventError reports an attempt to change attendance of an event that has started.
type PastEventError struct {
	EventID  string
	StartsAt time.Time
	Action   string
}

func (e PastEventError) Error() string {
	return fmt.Sprintf("cannot %s for past events", e.Action)
}

// AlreadyRegisteredError reports a duplicate (user, event) registration.
type AlreadyRegisteredError struct {
	EventID string
	UserID  string
}

func (e AlreadyRegisteredError) Error() string {
	return "user is already registered for this event"
}

// CapacityExceededError reports a full event.
type CapacityExceededError struct {
	Current  int
	Capacity int
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("event is at full capacity (%d/%d)", e.Current, e.Capacity)
}

// ValidationError reports input that violates a business or storage-level rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StorageError wraps a transport or transaction failure of the store.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
