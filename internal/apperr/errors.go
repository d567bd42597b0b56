// Package apperr defines sentinel errors shared across the publish pipeline.
package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate document")
)
