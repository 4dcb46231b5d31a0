package postgresengine

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

func Test_PostgresErrorClassification(t *testing.T) {
	// arrange
	uniqueViolation := errors.Join(persistence.ErrQueryFailed, &pgconn.PgError{Code: "23505"})
	undefinedTable := errors.Join(persistence.ErrQueryFailed, &pq.Error{Code: "42P01"})
	duplicateTable := errors.Join(persistence.ErrSchemaCreationFailed, &pgconn.PgError{Code: "42P07"})

	// act & assert
	assert.True(t, IsUniqueViolation(uniqueViolation))
	assert.False(t, IsUniqueViolation(undefinedTable))
	assert.True(t, IsUndefinedTable(undefinedTable))
	assert.True(t, IsDuplicateTable(duplicateTable))
	assert.False(t, IsDuplicateTable(errors.New("plain")))
}

func Test_ClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "persistence error", err: errors.Join(persistence.ErrQueryFailed, errors.New("boom")), expected: "query_failed"},
		{name: "canceled", err: errors.Join(persistence.ErrQueryFailed, context.Canceled), expected: "canceled"},
		{name: "timeout", err: errors.Join(persistence.ErrExecFailed, context.DeadlineExceeded), expected: "timeout"},
		{name: "unknown", err: errors.New("boom"), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyError(tt.err))
		})
	}
}
