package storage

import "errors"

// Storage errors shared by every backend. Records are written once per run
// and never updated.
var (
	ErrNotFound     = errors.New("storage: record not found")
	ErrDuplicateKey = errors.New("storage: record already exists for this run")
	ErrInvalidInput = errors.New("storage: invalid input")
)
