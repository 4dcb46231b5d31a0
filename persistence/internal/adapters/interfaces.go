package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the persistence engine.
type DBAdapter interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	// Record returns the current row as column -> value, omitting NULL columns.
	Record() (map[string]any, error)
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
