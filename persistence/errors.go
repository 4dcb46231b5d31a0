package persistence

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error.
type ErrorKind string

const (
	// KindConfiguration marks missing or invalid configuration. Never retried.
	KindConfiguration ErrorKind = "configuration"

	// KindConnection marks failures to establish or use the database connection.
	KindConnection ErrorKind = "connection"

	// KindExecution marks failed SQL statements and row conversion failures.
	KindExecution ErrorKind = "execution"
)

// Error is the error type of all sentinel errors in this module.
//
// Sentinels are joined with their underlying cause via errors.Join, so both
// errors.Is(err, ErrNoHost) and errors.As(err, &pgErr) work on returned errors.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Code == e.Code
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Configuration errors.
var (
	ErrNoConnection             = newError(KindConfiguration, "NO_CONNECTION", "connection is not set")
	ErrNoHost                   = newError(KindConfiguration, "NO_HOST", "connection host is not set")
	ErrNoPort                   = newError(KindConfiguration, "NO_PORT", "connection port is not set")
	ErrNoDatabase               = newError(KindConfiguration, "NO_DATABASE", "connection database is not set")
	ErrInvalidConnectionString  = newError(KindConfiguration, "BAD_CONNECTION", "connection string can not be parsed")
	ErrEmptyTableName           = newError(KindConfiguration, "NO_TABLE", "empty table name supplied")
	ErrNilDatabaseConnection    = newError(KindConfiguration, "NO_DB_HANDLE", "database connection must not be nil")
	ErrNilCodec                 = newError(KindConfiguration, "NO_CODEC", "record codec must not be nil")
	ErrInvalidIDGenerator       = newError(KindConfiguration, "BAD_ID_GENERATOR", "id generator does not match the identity type")
	ErrConflictingConnectionCfg = newError(KindConfiguration, "CONFLICTING_CONNECTION", "either a borrowed connection or a connection config may be supplied, not both")
	ErrInvalidConfiguration     = newError(KindConfiguration, "BAD_CONFIG", "configuration can not be read")
)

// Connection errors.
var (
	ErrConnectionNotOpened = newError(KindConnection, "CONNECTION_NOT_OPENED", "database connection is not opened")
	ErrConnectionFailed    = newError(KindConnection, "CONNECT_FAILED", "connection to postgres failed")
	ErrClearFailed         = newError(KindConnection, "CLEAR_FAILED", "clearing the table failed")
)

// Execution errors.
var (
	ErrSchemaCreationFailed = newError(KindExecution, "SCHEMA_FAILED", "creating database objects failed")
	ErrBuildingQueryFailed  = newError(KindExecution, "BUILD_QUERY_FAILED", "building the query failed")
	ErrQueryFailed          = newError(KindExecution, "QUERY_FAILED", "querying rows failed")
	ErrExecFailed           = newError(KindExecution, "EXEC_FAILED", "executing the statement failed")
	ErrScanningRowFailed    = newError(KindExecution, "SCAN_FAILED", "scanning db row failed")
	ErrEncodingRecordFailed = newError(KindExecution, "ENCODE_FAILED", "converting record to row failed")
	ErrDecodingRecordFailed = newError(KindExecution, "DECODE_FAILED", "converting row to record failed")
)

// ErrAbsentRecord is returned by Codec.FromRow for a row that holds no record. Engines skip such rows.
var ErrAbsentRecord = newError(KindExecution, "ABSENT_RECORD", "row holds no record")

// KindOf returns the kind of the first *Error found in err's tree.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return "", false
}

// IsConfigurationError reports whether err carries a configuration error.
func IsConfigurationError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConfiguration
}

// IsConnectionError reports whether err carries a connection error.
func IsConnectionError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConnection
}

// IsExecutionError reports whether err carries an execution error.
func IsExecutionError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindExecution
}
