package entity

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors below wrap one of these so callers can use errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Validation errors
var (
	ErrEmptyAccountID         = fmt.Errorf("%w: account ID is required", ErrInvalidArgument)
	ErrEmptyCaption           = fmt.Errorf("%w: caption is required to publish", ErrInvalidArgument)
	ErrNoPlatforms            = fmt.Errorf("%w: at least one platform must be selected", ErrInvalidArgument)
	ErrInvalidPlatform        = fmt.Errorf("%w: unknown platform", ErrInvalidArgument)
	ErrDuplicatePlatform      = fmt.Errorf("%w: platform selected more than once", ErrInvalidArgument)
	ErrInvalidStatus          = fmt.Errorf("%w: invalid post status", ErrInvalidArgument)
	ErrScheduleTimeRequired   = fmt.Errorf("%w: scheduled post requires a scheduled time", ErrInvalidArgument)
	ErrTitleTooLong           = fmt.Errorf("%w: title exceeds maximum length", ErrInvalidArgument)
	ErrCaptionTooLong         = fmt.Errorf("%w: caption exceeds maximum length", ErrInvalidArgument)
	ErrInvalidOccurrenceCount = fmt.Errorf("%w: occurrence count must be between 1 and %d", ErrInvalidArgument, MaxOccurrences)
	ErrInvalidFrequency       = fmt.Errorf("%w: unknown recurrence frequency", ErrInvalidArgument)
	ErrInvalidDateRange       = fmt.Errorf("%w: range start must not be after range end", ErrInvalidArgument)
)

// Business logic errors
var (
	ErrPostNotFound    = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrPostNotOwned    = fmt.Errorf("%w: post belongs to another account", ErrUnauthorized)
	ErrPostNotEditable = errors.New("published post cannot be edited")
)

// ErrPlatformNotSupported is recorded when no publisher is registered for a platform
var ErrPlatformNotSupported = errors.New("platform not supported")

// PlatformError is raised by a platform publisher when the network rejects the content.
// Message carries the platform's own wording.
type PlatformError struct {
	Platform   Platform
	StatusCode int
	Message    string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

// PersistenceError wraps a failure of the record store
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
