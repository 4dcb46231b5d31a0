// Package connection resolves connection settings into a Postgres connection string and manages
// the lifecycle of the connection pool an engine works on.
//
// A Manager either owns its pool (created from a Resolver on Open, closed on Close) or
// borrows a pgxpool.Pool, sql.DB or sqlx.DB that the caller opened and will close.
package connection
