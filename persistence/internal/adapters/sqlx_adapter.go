package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// Query executes a query using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	_, types, err := describeColumns(rows.Rows)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}

	return &sqlxRows{rows: rows, types: types}, nil
}

// Exec executes a statement using the sqlx.DB and returns wrapped result.
func (s *SQLXAdapter) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &sqlResult{result: result}, nil
}

// Ping verifies the database is reachable.
func (s *SQLXAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLXAdapter) Close() error {
	return s.db.Close()
}

// sqlxRows wraps sqlx.Rows and uses MapScan for generic rows.
type sqlxRows struct {
	rows  *sqlx.Rows
	types []string
}

// Next advances to the next row.
func (s *sqlxRows) Next() bool {
	return s.rows.Next()
}

// Record scans the current row via sqlx's MapScan and normalizes the values.
func (s *sqlxRows) Record() (map[string]any, error) {
	raw := make(map[string]any)
	if err := s.rows.MapScan(raw); err != nil {
		return nil, err
	}

	columns, err := s.rows.Columns()
	if err != nil {
		return nil, err
	}

	record := make(map[string]any, len(raw))
	for i, column := range columns {
		if err = putNormalized(record, column, raw[column], s.types[i]); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// Err returns any error that occurred while iterating.
func (s *sqlxRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *sqlxRows) Close() error {
	return s.rows.Close()
}
