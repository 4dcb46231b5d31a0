package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// Query executes a query using the sql.DB and returns wrapped rows.
func (s *SQLAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return newSQLRows(rows)
}

// Exec executes a statement using the sql.DB and returns wrapped result.
func (s *SQLAdapter) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &sqlResult{result: result}, nil
}

// Ping verifies the database is reachable.
func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLAdapter) Close() error {
	return s.db.Close()
}

// sqlRows wraps standard library sql.Rows to implement DBRows interface.
type sqlRows struct {
	rows    *sql.Rows
	columns []string
	types   []string
}

func newSQLRows(rows *sql.Rows) (*sqlRows, error) {
	columns, types, err := describeColumns(rows)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}

	return &sqlRows{rows: rows, columns: columns, types: types}, nil
}

// Next advances to the next row.
func (s *sqlRows) Next() bool {
	return s.rows.Next()
}

// Record scans the current row into a map, normalized by column type.
func (s *sqlRows) Record() (map[string]any, error) {
	values := make([]any, len(s.columns))
	pointers := make([]any, len(s.columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := s.rows.Scan(pointers...); err != nil {
		return nil, err
	}

	record := make(map[string]any, len(s.columns))
	for i, column := range s.columns {
		if err := putNormalized(record, column, values[i], s.types[i]); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// Err returns any error that occurred while iterating.
func (s *sqlRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *sqlRows) Close() error {
	return s.rows.Close()
}

// sqlResult wraps standard library sql.Result to implement DBResult interface.
type sqlResult struct {
	result sql.Result
}

// RowsAffected returns the number of rows affected by the command.
func (s *sqlResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}
