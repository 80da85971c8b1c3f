package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict: resource already exists")
	ErrRateLimited  = errors.New("too many requests")

	// ErrCampaignActive rejects mutations that would leave products pointing at a removed sale.
	ErrCampaignActive = errors.New("cannot delete an active sale with associated products")
	// ErrStoreRead marks a failure loading an authoritative set; the whole run is abandoned.
	ErrStoreRead = errors.New("store read failed")
	// ErrRunInProgress is returned when a reconciliation is requested while one is running.
	ErrRunInProgress = errors.New("reconciliation already in progress")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Invalid returns an ErrInvalidInput carrying a human readable reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ReadFailure tags err as a StoreReadFailure.
func ReadFailure(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreRead, what, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
