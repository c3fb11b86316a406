// Package errors provides structured error types used across the engine.
// We prefer these over raw fmt.Errorf strings so callers can classify
// failures with errors.Is / errors.As: per-trip errors are swallowed and
// counted while systemic errors abort the whole run.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError indicates invalid configuration or run parameters
// provided by a caller. Always systemic: a run must refuse to start.
type ValidationError struct {
	Op  string // where it happened (package.Function)
	Msg string // human friendly message
	Err error  // underlying cause (optional)
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidation(op, msg string, err error) error {
	return &ValidationError{Op: op, Msg: msg, Err: err}
}

// DBError represents datastore access failures. Systemic: the datastore is
// the only shared mutable resource, so losing it is fatal to the run.
type DBError struct {
	Op  string
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("db: %s: %s", e.Op, e.Msg)
}

func (e *DBError) Unwrap() error { return e.Err }

func NewDB(op, msg string, err error) error { return &DBError{Op: op, Msg: msg, Err: err} }

// NotFoundError indicates a referenced entity does not exist. Fatal only to
// the single trip being processed; the batch logs it and continues.
type NotFoundError struct {
	Op     string
	Entity string // e.g. "trip"
	ID     string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("not found: %s: %s %s", e.Op, e.Entity, e.ID)
}

func NewNotFound(op, entity, id string) error {
	return &NotFoundError{Op: op, Entity: entity, ID: id}
}

// ExternalAPIError represents failures in external services (the optional
// geocoder). Treated as missing-signal by the matchers, never fatal.
type ExternalAPIError struct {
	Op     string
	System string // e.g. "googlemaps"
	Msg    string
	Err    error
}

func (e *ExternalAPIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	sys := e.System
	if sys == "" {
		sys = "external"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", sys, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", sys, e.Op, e.Msg)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

func NewExternal(op, system, msg string, err error) error {
	return &ExternalAPIError{Op: op, System: system, Msg: msg, Err: err}
}

// Kind sentinels: allow callers to check error kind without type assertions.
var (
	ErrValidation = &ValidationError{}
	ErrDB         = &DBError{}
	ErrNotFound   = &NotFoundError{}
	ErrExternal   = &ExternalAPIError{}
)

// Is enables errors.Is(err, ErrDB) style kind checks by delegating to
// errors.As with the zero-value pointer of each type.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *DBError:
		var d *DBError
		return errors.As(err, &d)
	case *NotFoundError:
		var n *NotFoundError
		return errors.As(err, &n)
	case *ExternalAPIError:
		var x *ExternalAPIError
		return errors.As(err, &x)
	default:
		return errors.Is(err, target)
	}
}

// IsSystemic reports whether an error must abort the whole run rather than
// just the trip that raised it.
func IsSystemic(err error) bool {
	return Is(err, ErrValidation) || Is(err, ErrDB)
}
