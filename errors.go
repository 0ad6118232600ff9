package integritykit

import (
	"errors"
	"fmt"
)

// Common validation errors
var (
	ErrNotExist     = errors.New("file does not exist")
	ErrEmptyFile    = errors.New("file is empty")
	ErrIsDir        = errors.New("is a directory")
	ErrInvalidName  = errors.New("invalid filename")
	ErrSizeMismatch = errors.New("declared size does not match received bytes")
	ErrNotSeekable  = errors.New("source does not support seeking")
	ErrNotSupported = errors.New("operation not supported")
)

// PathError records an error and the operation and source path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// SizeMismatchError is returned when an upload's declared size does not match
// the number of bytes actually received.
type SizeMismatchError struct {
	Path     string
	Expected uint64
	Actual   uint64
}

// Error implements the error interface
func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: declared %d bytes, received %d bytes", e.Path, e.Expected, e.Actual)
}

// Unwrap returns ErrSizeMismatch so callers can match with errors.Is
func (e *SizeMismatchError) Unwrap() error {
	return ErrSizeMismatch
}

// IsNotExist reports whether an error indicates that the source file
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsEmptyFile reports whether an error indicates a zero-length source
func IsEmptyFile(err error) bool {
	return errors.Is(err, ErrEmptyFile)
}

// IsSizeMismatch reports whether an error indicates a declared/actual
// size mismatch
func IsSizeMismatch(err error) bool {
	return errors.Is(err, ErrSizeMismatch)
}
