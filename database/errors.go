package database

import "errors"

var (
	// ErrNotFound is returned when a record with the given id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidStatus is returned when a task status is outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid task status")
)
