package service

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when a username is unknown or a password does not match.
var ErrInvalidCredentials = errors.New("invalid username and/or password")

// ErrForbidden is returned when a task or project is missing or owned by someone else.
// Both cases are reported the same way so ids of other users cannot be probed.
var ErrForbidden = errors.New("task not found or forbidden")

// ValidationError is a missing or malformed form field. Msg is shown on the form.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// PersistenceError is a failed write. The surrounding transaction has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeliveryError is a rejected or unreachable mail relay.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "deliver message: " + e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }
