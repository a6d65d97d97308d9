package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("openapi serve failed")
	ErrBadRequest = errors.New("bad request")
)

// Wrap annotates err with the operation that produced it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind builds an operation-scoped error of the given kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with both the operation and the error kind.
func WrapKind(op string, kind error, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
