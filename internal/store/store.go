// Package store adapts the clinic's appointment data service. Adapters hold
// no cache and never retry; callers decide what to do with a failure.
package store

import (
	"context"
	"errors"
	"fmt"

	"clinic-dashboard-server/internal/models"
)

// Store is the appointment persistence surface used by the dashboard.
type Store interface {
	FetchAll(ctx context.Context) ([]models.Appointment, error)
	Update(ctx context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error)
	Create(ctx context.Context, fields models.AppointmentFields) (models.Appointment, error)
	Delete(ctx context.Context, id models.ID) error
}

// ErrorKind classifies a StoreError.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
)

// Sentinels matched by StoreError.Is.
var (
	ErrNetwork    = errors.New("store: network failure")
	ErrValidation = errors.New("store: validation failure")
	ErrNotFound   = errors.New("store: not found")
)

// StoreError is returned by every adapter operation that fails.
type StoreError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match on Kind.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

func networkError(err error, format string, args ...any) *StoreError {
	return &StoreError{Kind: KindNetwork, Message: fmt.Sprintf(format, args...), Err: err}
}

func validationError(format string, args ...any) *StoreError {
	return &StoreError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(id models.ID) *StoreError {
	return &StoreError{Kind: KindNotFound, Message: fmt.Sprintf("appointment not found with id: %s", id)}
}

// KindOf returns the kind of a StoreError anywhere in err's chain, or
// KindNetwork for errors the adapters did not produce.
func KindOf(err error) ErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNetwork
}
