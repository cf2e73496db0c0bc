package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrEntityNotFound indicates that entity record was not found or is deleted
	ErrEntityNotFound = errors.New("entity not found")

	// ErrVersionConflict indicates that base version of a mutation does not
	// match the stored version (another client wrote in between)
	ErrVersionConflict = errors.New("entity version conflict")
)
