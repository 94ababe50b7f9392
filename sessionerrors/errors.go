package sessionerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an intent rejection so the ws layer can pick the right
// client-facing response without inspecting messages.
type Kind int

const (
	// KindValidation: malformed or missing fields in an inbound event.
	KindValidation Kind = iota
	// KindNotFound: unknown session, card, or player slot.
	KindNotFound
	// KindConflict: illegal transition attempt (room full, wrong turn,
	// card already played, wrong session status).
	KindConflict
	// KindPersistence: durable mirror write failed; in-memory state stands.
	KindPersistence
)

// Error is a typed, human-readable intent rejection.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation returns a KindValidation error with a formatted message.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error with a formatted message.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error with a formatted message.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure. The session mutation it followed is
// not rolled back.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: err.Error()}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and whether
// it was one.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsConflict reports whether err is a KindConflict error.
func IsConflict(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindConflict
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}
