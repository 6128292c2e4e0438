package eventstore

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingHost           = errors.New("database host is required")
	ErrMissingDatabase       = errors.New("database name is required")
	ErrMissingUsername       = errors.New("database username is required")
	ErrInvalidPort           = errors.New("invalid database port")
	ErrInvalidDriver         = errors.New("invalid database driver")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns   = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrInvalidQueueSize      = errors.New("queue size must be >= 0")

	// Connection errors
	ErrDatabaseClosed   = errors.New("database connection is closed")
	ErrConnectionFailed = errors.New("failed to connect to database")
	ErrRecorderClosed   = errors.New("recorder is closed")

	// Data errors
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrInvalidLimit    = errors.New("invalid query limit")
)

// ErrorType represents different categories of database errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeData
	ErrorTypeConstraint
	ErrorTypeQuery
	ErrorTypeSchema
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeTransaction:
		return "transaction"
	case ErrorTypeData:
		return "data"
	case ErrorTypeConstraint:
		return "constraint"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeSchema:
		return "schema"
	}
	return "unknown"
}

// DatabaseError provides detailed information about database errors
type DatabaseError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Code      string    `json:"code,omitempty"`
	Retryable bool      `json:"retryable"`
}

func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// Is matches DatabaseErrors of the same type and message, and the
// sentinel errors that carry a code.
func (e *DatabaseError) Is(target error) bool {
	if dbErr, ok := target.(*DatabaseError); ok {
		return e.Message == dbErr.Message && e.Type == dbErr.Type
	}
	switch target {
	case ErrReceiptNotFound:
		return e.Type == ErrorTypeData && e.Code == codeReceiptNotFound
	case ErrDuplicateEntry:
		return e.Type == ErrorTypeConstraint && e.Code == codeDuplicateEntry
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection
	}
	return false
}

// WithCode sets the error code
func (e *DatabaseError) WithCode(code string) *DatabaseError {
	e.Code = code
	return e
}

const (
	codeReceiptNotFound = "RECEIPT_NOT_FOUND"
	codeDuplicateEntry  = "DUPLICATE_ENTRY"
)

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(errorType ErrorType, operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errorType == ErrorTypeConnection,
	}
}

func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConfiguration, operation, message, cause)
}

func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConnection, operation, message, cause)
}

func NewTransactionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeTransaction, operation, message, cause)
}

func NewQueryError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeQuery, operation, message, cause)
}

func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeSchema, operation, message, cause)
}

// IsRetryable reports whether err is a retryable DatabaseError.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Retryable
}
