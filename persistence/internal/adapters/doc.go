// Package adapters provide database adapter implementations for the PostgreSQL persistence engine.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB (lib/pq), and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, and all of them return result rows as generic column->value maps
// with the same value normalization: JSON columns decoded, timestamps in UTC, NULL columns omitted.
package adapters
