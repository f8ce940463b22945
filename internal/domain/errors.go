package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks blob or record store failures.
	ErrStorage = errors.New("storage failure")

	// ErrParse marks failures while building the extracted payload.
	ErrParse = errors.New("parse failure")

	// ErrValidationFailed is returned when a document fails the structural check.
	ErrValidationFailed = errors.New("file validation failed")
)
