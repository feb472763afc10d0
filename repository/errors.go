package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser is returned when the username or email is taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrDuplicateArtist is returned when the user already has an artist record.
	ErrDuplicateArtist = errors.New("artist already exists for user")
)
