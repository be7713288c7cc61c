package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateTitle      = errors.New("title already exists")
	ErrNoSuchEmail         = errors.New("no account with that email")
	ErrBadPassword         = errors.New("wrong password")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNotAdmin            = errors.New("admin role required")
	ErrProviderUnavailable = errors.New("metadata provider unavailable")
	ErrInvalidInput        = errors.New("invalid input")
)
