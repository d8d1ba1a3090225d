package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// ValidationError represents bad or ambiguous input data, row-level or whole-batch.
	ValidationError ErrorCode = "validation_error"
	// CSVParseError represents a structural or type problem in a CSV row.
	CSVParseError ErrorCode = "csv_parse_error"
	// NotFoundError represents an operation referencing a key or range with no data.
	NotFoundError ErrorCode = "not_found_error"
	// StorageConnectivityError represents an unreachable storage backend.
	StorageConnectivityError ErrorCode = "storage_connectivity_error"
	// StorageTimeoutError represents a storage call that exceeded its deadline.
	StorageTimeoutError ErrorCode = "storage_timeout_error"
	// StorageConstraintError represents a constraint violation reported by storage.
	StorageConstraintError ErrorCode = "storage_constraint_error"
	// DatafeedError represents a failure while querying the external datafeed.
	DatafeedError ErrorCode = "datafeed_error"
)

// Category represents the category of an error.
type Category string

const (
	// CategoryValidation indicates an error related to validation of input data.
	CategoryValidation Category = "validation"
	// CategoryStorage indicates an error related to the storage backend.
	CategoryStorage Category = "storage"
	// CategoryExternal indicates an error related to external services.
	CategoryExternal Category = "external"
	// CategoryUnknown indicates an unknown error category.
	CategoryUnknown Category = "unknown"
)

// RowDetail carries the context of a single rejected CSV row.
type RowDetail struct {
	// Row is the 1-based data row number in the source file.
	Row int
	// Column is the source column the error occurred on, if any.
	Column string
	// Value is the raw value that failed to parse, if any.
	Value string
	// Reason is the human-readable rejection reason.
	Reason string
}

func (r RowDetail) String() string {
	if r.Column != "" {
		return fmt.Sprintf("row %d, column %q, value %q: %s", r.Row, r.Column, r.Value, r.Reason)
	}
	return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
}

// DataError is the tagged error type for every user-visible failure.
// It always carries the error code and the affected series key; row-level
// failures additionally carry the rejected rows.
type DataError struct {
	Code    ErrorCode
	Message string

	// Key is the affected series key ("symbol.exchange.interval"), if any.
	Key string

	// Rows holds per-row rejection details for batch validation failures.
	Rows []RowDetail

	cause error
}

// NewDataError creates a DataError with the given code and message.
func NewDataError(code ErrorCode, message string) *DataError {
	return &DataError{Code: code, Message: message}
}

// NewValidation creates a validation DataError.
func NewValidation(message string) *DataError {
	return &DataError{Code: ValidationError, Message: message}
}

// NewNotFound creates a not-found DataError for the given series key.
func NewNotFound(key string) *DataError {
	return &DataError{
		Code:    NotFoundError,
		Message: fmt.Sprintf("no data stored for %s", key),
		Key:     key,
	}
}

// WithKey attaches the affected series key.
func (e *DataError) WithKey(key string) *DataError {
	e.Key = key
	return e
}

// WithRows attaches per-row rejection details.
func (e *DataError) WithRows(rows []RowDetail) *DataError {
	e.Rows = rows
	return e
}

// WithCause attaches the underlying error.
func (e *DataError) WithCause(cause error) *DataError {
	e.cause = cause
	return e
}

// Error implements the error interface.
func (e *DataError) Error() string {
	buff := bytes.NewBufferString(string(e.Code))
	buff.WriteString(": ")
	buff.WriteString(e.Message)
	if e.Key != "" {
		buff.WriteString("; key: ")
		buff.WriteString(e.Key)
	}
	for _, row := range e.Rows {
		buff.WriteString("; ")
		buff.WriteString(row.String())
	}
	return buff.String()
}

// Unwrap returns the underlying cause, if any.
func (e *DataError) Unwrap() error {
	return e.cause
}

// GetCategory maps the error code to its category.
func (e *DataError) GetCategory() Category {
	switch e.Code {
	case ValidationError, CSVParseError, NotFoundError:
		return CategoryValidation
	case StorageConnectivityError, StorageTimeoutError, StorageConstraintError:
		return CategoryStorage
	case DatafeedError:
		return CategoryExternal
	default:
		return CategoryUnknown
	}
}

// CodeOf returns the error code of err if it is (or wraps) a DataError.
func CodeOf(err error) (ErrorCode, bool) {
	var dataErr *DataError
	if stderrors.As(err, &dataErr) {
		return dataErr.Code, true
	}
	return "", false
}

// IsCode checks whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	actual, ok := CodeOf(err)
	return ok && actual == code
}

// IsValidation checks whether err is a validation or parse failure.
func IsValidation(err error) bool {
	return IsCode(err, ValidationError) || IsCode(err, CSVParseError)
}

// IsNotFound checks whether err is a not-found failure.
func IsNotFound(err error) bool {
	return IsCode(err, NotFoundError)
}

// IsTimeout checks whether err is a storage timeout.
func IsTimeout(err error) bool {
	return IsCode(err, StorageTimeoutError)
}

// IsStorage checks whether err belongs to the storage category.
func IsStorage(err error) bool {
	var dataErr *DataError
	if stderrors.As(err, &dataErr) {
		return dataErr.GetCategory() == CategoryStorage
	}
	return false
}
