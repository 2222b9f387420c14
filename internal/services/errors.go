package services

import "errors"

var (
	// ErrNotFound is returned when a referenced pipeline, stage or
	// application does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a mutation is blocked by current state,
	// e.g. deleting a stage that applications still point at.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned when a request is structurally wrong, e.g.
	// a stage reorder whose id set does not match the pipeline.
	ErrInvalidInput = errors.New("invalid input")
)
