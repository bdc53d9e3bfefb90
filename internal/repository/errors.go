package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateUserID indicates a create collided with an existing public user id.
	ErrDuplicateUserID = errors.New("repository: duplicate user id")
	// ErrInvalidUser indicates a write was rejected for violating field constraints.
	ErrInvalidUser = errors.New("repository: invalid user")
)
