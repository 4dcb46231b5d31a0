package adapters

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the engine distinguishes.
const (
	SQLStateUniqueViolation = "23505"
	SQLStateUndefinedTable  = "42P01"
	SQLStateDuplicateTable  = "42P07"
)

// SQLState extracts the SQLSTATE code from a pgx or lib/pq error.
func SQLState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}

	return "", false
}

// HasSQLState reports whether err carries the given SQLSTATE code.
func HasSQLState(err error, code string) bool {
	state, ok := SQLState(err)
	return ok && state == code
}
