package models

import "errors"

// Domain error values. Callers match them with errors.Is; the service and
// repository layers wrap them with operation and key context.
var (
	// ErrNotFound covers missing participants, sessions, templates and
	// trash entries alike.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when adding a participant whose name is
	// already in the record.
	ErrDuplicateName = errors.New("duplicate participant name")

	// ErrEmptyName is returned when a participant name is blank after
	// trimming surrounding whitespace.
	ErrEmptyName = errors.New("empty participant name")

	// ErrInvalidNumber is returned for bet numbers outside the 1-49 pool.
	ErrInvalidNumber = errors.New("bet number out of range")

	// ErrInvalidAmount is returned for negative or non-finite stake amounts.
	ErrInvalidAmount = errors.New("invalid stake amount")

	// ErrInvalidPrizeSettings is returned when the winning number is out of
	// range or the payout rate is not strictly positive.
	ErrInvalidPrizeSettings = errors.New("invalid prize settings")

	// ErrInvalidName is returned when a storage name contains characters
	// that cannot appear in a storage key.
	ErrInvalidName = errors.New("invalid storage name")

	// ErrConfirmationDeclined is returned when the user declines an
	// overwrite confirmation.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)
