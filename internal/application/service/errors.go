package service

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports a rejected request field or file
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NotFoundError reports a missing task, company, user or file
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StorageError wraps a failure of the filesystem or blob store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failure of the task document store.
// The message of the underlying error is surfaced unchanged.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ArchiveErrorKind classifies archive failures
type ArchiveErrorKind string

const (
	ArchiveTimeout  ArchiveErrorKind = "timeout"
	ArchiveTooLarge ArchiveErrorKind = "too_large"
	ArchiveEmpty    ArchiveErrorKind = "empty"
)

// ArchiveError reports why an archive could not be produced
type ArchiveError struct {
	Kind    ArchiveErrorKind
	Size    int64
	Limit   int64
	Timeout time.Duration
}

func (e *ArchiveError) Error() string {
	switch e.Kind {
	case ArchiveTimeout:
		return fmt.Sprintf("archive not ready within %s", e.Timeout)
	case ArchiveTooLarge:
		return fmt.Sprintf("attachments total %d bytes, limit is %d", e.Size, e.Limit)
	default:
		return "no attachments to package"
	}
}

// Fallback reports whether the client should download files individually instead
func (e *ArchiveError) Fallback() bool {
	return e.Kind == ArchiveTimeout || e.Kind == ArchiveTooLarge
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsStorage reports whether err is a StorageError
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// AsArchiveError extracts an ArchiveError from err
func AsArchiveError(err error) (*ArchiveError, bool) {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
