package core

import "errors"

// Common errors.
var (
	ErrReadOnly         = errors.New("repository is in read-only mode")
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyExists    = errors.New("document already exists")
	ErrInvalidID        = errors.New("invalid document ID")
	ErrNotTransactional = errors.New("repository does not support transactions")
	ErrNotWatchable     = errors.New("repository does not support watching")
)
