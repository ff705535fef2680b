package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrInvalidInput    = errors.New("invalid input")
	ErrProviderFailure = errors.New("provider failure")
)
