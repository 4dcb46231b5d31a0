package postgresengine

import (
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

// IsUniqueViolation reports whether err was caused by a unique or primary key violation (SQLSTATE 23505),
// for example when Create inserts an id that already exists.
func IsUniqueViolation(err error) bool {
	return adapters.HasSQLState(err, adapters.SQLStateUniqueViolation)
}

// IsUndefinedTable reports whether err was caused by a missing table (SQLSTATE 42P01).
func IsUndefinedTable(err error) bool {
	return adapters.HasSQLState(err, adapters.SQLStateUndefinedTable)
}

// IsDuplicateTable reports whether err was caused by creating a table that already exists (SQLSTATE 42P07).
func IsDuplicateTable(err error) bool {
	return adapters.HasSQLState(err, adapters.SQLStateDuplicateTable)
}
