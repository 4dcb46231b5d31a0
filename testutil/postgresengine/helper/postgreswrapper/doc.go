// Package postgreswrapper provides test utilities for abstracting over different PostgreSQL database adapters.
//
// This package enables testing of the persistence engines across multiple database drivers
// (pgx, sql.DB, sqlx.DB) using a common Wrapper interface. The specific adapter type is determined
// by the ADAPTER_TYPE environment variable, allowing the same test suite to run against different
// database implementations. Each wrapper hands out a borrowed connection.Manager.
//
// Usage:
//
//	// Create wrapper for testing (skips when the database is not reachable)
//	wrapper := CreateWrapperWithTestConfig(t)
//	defer wrapper.Close()
//
//	// Use the borrowed connection
//	engine, err := postgresengine.NewJSONDocumentEngine[*Note, string](table,
//		postgresengine.WithConnection(wrapper.GetManager()))
//
//	// Clean up between tests
//	DropTable(t, wrapper, engine.TableName())
package postgreswrapper
