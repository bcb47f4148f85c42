package core

import (
	"errors"
	"fmt"
)

// UserNotFoundMessage is the fixed, user-facing message for an unknown user.
const UserNotFoundMessage = "User ID not found."

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound     = errors.New("resource not found")
	ErrUserNotFound = &notFoundError{message: UserNotFoundMessage}

	// Source errors
	ErrSourceUnavailable = errors.New("dataset source unavailable")
	ErrSheetNotFound     = errors.New("sheet not found")

	// Data integrity errors
	ErrPriceUnparseable = errors.New("plan price is not a number")
)

// notFoundError keeps the fixed message as its text while still matching
// ErrNotFound through errors.Is.
type notFoundError struct {
	message string
}

func (e *notFoundError) Error() string { return e.message }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// Error constructors with context
func NewSourceUnavailableError(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
}

func NewSheetNotFoundError(source, sheet string) error {
	return fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheet, source)
}

func NewPriceError(productID, raw string) error {
	return fmt.Errorf("%w: product %q has price %q", ErrPriceUnparseable, productID, raw)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrSheetNotFound)
}

func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrPriceUnparseable)
}
