package domain

import "errors"

var (
	// ErrInvalidConfig reports a configuration that violates a precondition.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidInput reports a malformed request argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports a missing document or file.
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch reports a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrLengthMismatch reports chunk and vector batches of different sizes.
	ErrLengthMismatch = errors.New("chunks and vectors length mismatch")
)
