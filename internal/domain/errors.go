package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlan is returned when a chat turn is attempted before an outline exists.
	ErrNoPlan = errors.New("no lesson plan: create or load a plan first")
	// ErrNoPendingTurn is returned when an assistant turn is requested but the
	// last message is not from the user.
	ErrNoPendingTurn = errors.New("no pending user turn to answer")
	// ErrEmptyOutline is returned when the backend produced no outline text.
	ErrEmptyOutline = errors.New("outline generation returned no text")
	// ErrStreamConsumed is yielded by a stream that has already been iterated.
	ErrStreamConsumed = errors.New("stream already consumed")
	// ErrUnknownShortcut is returned for shortcut names outside the fixed set.
	ErrUnknownShortcut = errors.New("unknown shortcut")
)

// ValidationError means the caller passed something unusable; nothing was mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BackendCallError wraps a transport, auth or model failure from the LLM backend.
// The core never retries; callers decide whether to ask the learner to try again.
type BackendCallError struct {
	Op  string
	Err error
}

func (e *BackendCallError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendCallError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when no record exists for a topic.
type NotFoundError struct {
	Topic string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plan %q not found", e.Topic)
}

// SerializationError means a stored record could not be decoded.
type SerializationError struct {
	Topic string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("decode plan %q: %v", e.Topic, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsBackend(err error) bool {
	var b *BackendCallError
	return errors.As(err, &b)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}
