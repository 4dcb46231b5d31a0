// Package config provides PostgreSQL database configuration for persistence engine testing.
//
// This package contains factory functions for creating database connections
// using the supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB)
// against the test database, plus the resolver and options for owned test connections.
package config
