package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
type PGXAdapter struct {
	pool *pgxpool.Pool
}

// NewPGXAdapter creates a new PGX adapter.
func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool}
}

// Query executes a query using the pgx pool and returns wrapped rows.
func (p *PGXAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Exec executes a statement using the pgx pool and returns wrapped result.
func (p *PGXAdapter) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &pgxResult{tag: tag}, nil
}

// Ping verifies a connection can be acquired and used.
func (p *PGXAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes all pool connections.
func (p *PGXAdapter) Close() error {
	p.pool.Close()
	return nil
}

// DatabaseName returns the database the pool connects to.
func (p *PGXAdapter) DatabaseName() string {
	return p.pool.Config().ConnConfig.Database
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Record returns the current row, normalized.
func (p *pgxRows) Record() (map[string]any, error) {
	values, err := p.rows.Values()
	if err != nil {
		return nil, err
	}

	fields := p.rows.FieldDescriptions()
	record := make(map[string]any, len(fields))

	rawValues := p.rows.RawValues()

	for i, field := range fields {
		value := normalizePGXValue(values[i])

		if isJSONField(field) {
			value, err = jsonFieldValue(field, rawValues[i])
			if err != nil {
				return nil, err
			}
		}

		if value == nil {
			continue
		}
		record[field.Name] = value
	}

	return record, nil
}

// Err returns any error that occurred while iterating.
func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

// pgxResult wraps pgconn.CommandTag to implement the DBResult interface.
type pgxResult struct {
	tag pgconn.CommandTag
}

// RowsAffected returns the number of rows affected by the command.
func (p *pgxResult) RowsAffected() (int64, error) {
	return p.tag.RowsAffected(), nil
}

// isJSONField reports whether the column is json or jsonb.
func isJSONField(field pgconn.FieldDescription) bool {
	return field.DataTypeOID == pgtype.JSONOID || field.DataTypeOID == pgtype.JSONBOID
}

// jsonFieldValue decodes a json/jsonb column from its wire bytes instead of pgx's
// decoded value, which holds every number as float64.
// Binary jsonb carries a one-byte version prefix.
func jsonFieldValue(field pgconn.FieldDescription, raw []byte) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if field.DataTypeOID == pgtype.JSONBOID && field.Format == pgtype.BinaryFormatCode && len(raw) > 0 && raw[0] == 1 {
		raw = raw[1:]
	}

	return decodeJSON(raw)
}

// normalizePGXValue converts pgx's decoded values into plain Go values.
func normalizePGXValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil

	case time.Time:
		return v.UTC()

	case [16]byte:
		return uuid.UUID(v).String()

	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64

	default:
		return v
	}
}
