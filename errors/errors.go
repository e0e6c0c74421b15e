/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when attempting to create a record that already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreconditionFailed is returned when an optimistic concurrency check fails
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrThrottled is returned when the store rejects a request due to capacity limits
	ErrThrottled = errors.New("request throttled")

	// ErrUnavailable is returned on transient infrastructure faults
	ErrUnavailable = errors.New("store unavailable")

	// ErrCancelled is returned when an operation is abandoned due to cancellation or deadline
	ErrCancelled = errors.New("operation cancelled")

	// ErrInternal is returned on unexpected faults inside the engine itself
	ErrInternal = errors.New("internal error")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")
)

// Kind classifies an error for per-item batch result reporting.
type Kind string

const (
	KindNone               Kind = ""
	KindNotFound           Kind = "not_found"
	KindAlreadyExists      Kind = "already_exists"
	KindInvalid            Kind = "invalid"
	KindPreconditionFailed Kind = "precondition_failed"
	KindThrottled          Kind = "throttled"
	KindUnavailable        Kind = "unavailable"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

// KindOf maps an error to its Kind. Context cancellation and deadline
// expiry map to KindCancelled; anything unclassified is KindInternal,
// which always indicates a bug rather than an expected store outcome.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrInvalidInput):
		return KindInvalid
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrThrottled):
		return KindThrottled
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindInternal
	}
}

// IsRetryable reports whether an error represents a transient condition
// worth re-submitting. Only throttling and infrastructure faults qualify;
// every other kind is terminal for the chunk that produced it.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindThrottled || k == KindUnavailable
}

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	ID           string
	PartitionKey string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q in partition %q not found", e.ID, e.PartitionKey)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a record already exists
type AlreadyExistsError struct {
	ID           string
	PartitionKey string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("record %q in partition %q already exists", e.ID, e.PartitionKey)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PreconditionFailedError represents a version tag mismatch on a
// conditional write; a concurrent writer won.
type PreconditionFailedError struct {
	ID              string
	ExpectedVersion string
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("record %q was modified since last read (expected version %q)", e.ID, e.ExpectedVersion)
}

func (e *PreconditionFailedError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

// ThrottledError represents a capacity-exceeded rejection from the store
type ThrottledError struct {
	PartitionKey string
	Cause        error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("partition %q throttled: %v", e.PartitionKey, e.Cause)
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

func (e *ThrottledError) Unwrap() error { return e.Cause }

// UnavailableError represents a transient store fault
type UnavailableError struct {
	Operation string
	Cause     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Operation, e.Cause)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(id, partitionKey string) error {
	return &NotFoundError{ID: id, PartitionKey: partitionKey}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(id, partitionKey string) error {
	return &AlreadyExistsError{ID: id, PartitionKey: partitionKey}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewPreconditionFailedError creates a new PreconditionFailedError
func NewPreconditionFailedError(id, expectedVersion string) error {
	return &PreconditionFailedError{ID: id, ExpectedVersion: expectedVersion}
}

// NewThrottledError creates a new ThrottledError
func NewThrottledError(partitionKey string, cause error) error {
	return &ThrottledError{PartitionKey: partitionKey, Cause: cause}
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(operation string, cause error) error {
	return &UnavailableError{Operation: operation, Cause: cause}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is an input validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPreconditionFailed checks if an error is a version mismatch error
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsThrottled checks if an error is a throttling error
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsUnavailable checks if an error is a transient store fault
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
