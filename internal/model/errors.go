package model

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrNoActiveUser       = errors.New("no authenticated user")
	ErrInvalidToken       = errors.New("invalid id token")
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrAlreadyStarted  = errors.New("already started")
)
