package latchkey

import "errors"

var (
	// ErrValidation is returned when a host, port, user, scheme, name or
	// passkey fails validation.
	ErrValidation = errors.New("latchkey: invalid value")

	// ErrDuplicateKey is returned when a write collides with an existing
	// storage key.
	ErrDuplicateKey = errors.New("latchkey: duplicate key")

	// ErrDuplicateEntry is returned when an entry name is already taken.
	ErrDuplicateEntry = errors.New("latchkey: duplicate entry")

	// ErrNotFound is returned when a read, remove or lookup misses.
	ErrNotFound = errors.New("latchkey: not found")

	// ErrDependentsExist is returned when an entry cannot be removed because
	// other entries still bounce through its authority.
	ErrDependentsExist = errors.New("latchkey: dependent entries exist")

	// ErrCorruptValue is returned when a stored value is empty, fails to
	// decode, or carries an unknown passkey tag.
	ErrCorruptValue = errors.New("latchkey: corrupt stored value")

	// ErrMaxIterations is returned when the bounce-ordering pass cannot
	// resolve a jump chain within its iteration budget.
	ErrMaxIterations = errors.New("latchkey: max iterations exceeded")
)
