package stegdb

import (
	"errors"
	"fmt"

	"github.com/hantyrram/stegdb/document"
	"github.com/hantyrram/stegdb/query"
	"github.com/hantyrram/stegdb/update"
)

// ConnectionError is returned while validating a data-source path, before
// any storage access.
//
// errors.Is matches on Message, so callers can compare against the sentinels
// ErrInvalidPath, ErrImageNotFound and ErrPermissionDenied.
type ConnectionError struct {
	Message string
	Path    string
	Err     error
}

func (e *ConnectionError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports whether target is a ConnectionError with the same Message.
func (e *ConnectionError) Is(target error) bool {
	t, ok := target.(*ConnectionError)
	return ok && t.Message == e.Message
}

// Connection errors.
var (
	ErrInvalidPath      = &ConnectionError{Message: "Invalid path"}
	ErrImageNotFound    = &ConnectionError{Message: "Image File Not Found"}
	ErrPermissionDenied = &ConnectionError{Message: "No Permission to read or write to file!"}
)

// DriverError is returned by database operations. Operations fail with a
// DriverError before any partial mutation is applied, except ErrCommitFailed
// which reports a failed flush after the in-memory state was rolled back.
//
// errors.Is matches on Message.
type DriverError struct {
	Message string
	Detail  string
	Err     error
}

func (e *DriverError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DriverError) Unwrap() error { return e.Err }

// Is reports whether target is a DriverError with the same Message.
func (e *DriverError) Is(target error) bool {
	t, ok := target.(*DriverError)
	return ok && t.Message == e.Message
}

// Driver errors.
var (
	ErrCollectionNotFound    = &DriverError{Message: "Collection Does Not Exist"}
	ErrCollectionExists      = &DriverError{Message: "Collection Name Already Exists"}
	ErrInvalidOperator       = &DriverError{Message: "Invalid Operator"}
	ErrInvalidStoragePath    = &DriverError{Message: "Invalid storage file path"}
	ErrInvalidQuery          = &DriverError{Message: "Invalid Query"}
	ErrInvalidUpdate         = &DriverError{Message: "Invalid Update"}
	ErrInvalidProjection     = &DriverError{Message: "Invalid Projection"}
	ErrInvalidCollectionName = &DriverError{Message: "Invalid Collection Name"}
	ErrInvalidDocument       = &DriverError{Message: "Invalid Document"}
	ErrCorruptData           = &DriverError{Message: "Corrupt Database Content"}
	ErrCommitFailed          = &DriverError{Message: "Commit Failed"}
	ErrNotInitialized        = &DriverError{Message: "Database Not Initialized"}
	ErrClosed                = &DriverError{Message: "Database Closed"}
)

func driverError(kind *DriverError, detail string, err error) *DriverError {
	return &DriverError{Message: kind.Message, Detail: detail, Err: err}
}

func connectionError(kind *ConnectionError, path string, err error) *ConnectionError {
	return &ConnectionError{Message: kind.Message, Path: path, Err: err}
}

// translateError maps errors of the query, update and document packages to
// DriverErrors, keeping the original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var de *DriverError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, query.ErrUnknownOperator), errors.Is(err, update.ErrUnknownOperator):
		return driverError(ErrInvalidOperator, "", err)
	case errors.Is(err, query.ErrInvalidQuery):
		return driverError(ErrInvalidQuery, "", err)
	case errors.Is(err, query.ErrInvalidProjection):
		return driverError(ErrInvalidProjection, "", err)
	case errors.Is(err, update.ErrInvalidUpdate):
		return driverError(ErrInvalidUpdate, "", err)
	case errors.Is(err, document.ErrUnsupportedValue):
		return driverError(ErrInvalidDocument, "", err)
	}
	return fmt.Errorf("stegdb: %w", err)
}
