package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
	"github.com/AntonStoeckl/relational-persistence-go/testutil/postgresengine/config"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetManager() *connection.Manager
	Exec(ctx context.Context, query string, args ...any) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool    *pgxpool.Pool
	manager *connection.Manager
}

func (w *PGXPoolWrapper) GetManager() *connection.Manager {
	return w.manager
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.pool.Exec(ctx, query, args...)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db      *sql.DB
	manager *connection.Manager
}

func (w *SQLDBWrapper) GetManager() *connection.Manager {
	return w.manager
}

func (w *SQLDBWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db      *sqlx.DB
	manager *connection.Manager
}

func (w *SQLXWrapper) GetManager() *connection.Manager {
	return w.manager
}

func (w *SQLXWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the ADAPTER_TYPE environment variable.
// The test is skipped when the test database is not reachable.
func CreateWrapperWithTestConfig(t testing.TB) Wrapper {
	ctx := context.Background()
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.PostgresPGXPoolTestPool(ctx)
		skipIfUnreachable(t, err)

		manager, err := connection.NewManagerFromPGXPool(pool)
		require.NoError(t, err, "error creating connection manager")

		return &PGXPoolWrapper{pool: pool, manager: manager}

	case typeSQLDB:
		db, err := config.PostgresSQLDBTestConfig(ctx)
		skipIfUnreachable(t, err)

		manager, err := connection.NewManagerFromSQLDB(db, connection.WithDatabaseName(config.PostgresTestResolver().DatabaseName()))
		require.NoError(t, err, "error creating connection manager")

		return &SQLDBWrapper{db: db, manager: manager}

	case typeSQLXDB:
		db, err := config.PostgresSQLXTestConfig(ctx)
		skipIfUnreachable(t, err)

		manager, err := connection.NewManagerFromSQLX(db, connection.WithDatabaseName(config.PostgresTestResolver().DatabaseName()))
		require.NoError(t, err, "error creating connection manager")

		return &SQLXWrapper{db: db, manager: manager}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// SkipIfDatabaseUnreachable skips the test when the test database can not be reached.
func SkipIfDatabaseUnreachable(t testing.TB) {
	pool, err := config.PostgresPGXPoolTestPool(context.Background())
	skipIfUnreachable(t, err)
	pool.Close()
}

// DropTable drops the given (quoted, possibly schema-qualified) table if it exists.
func DropTable(t testing.TB, wrapper Wrapper, quotedTable string) {
	err := wrapper.Exec(context.Background(), "DROP TABLE IF EXISTS "+quotedTable)
	require.NoError(t, err, "error dropping the table %s", quotedTable)
}

// DropSchema drops the given schema, and everything in it, if it exists.
func DropSchema(t testing.TB, wrapper Wrapper, schemaName string) {
	err := wrapper.Exec(context.Background(), `DROP SCHEMA IF EXISTS "`+schemaName+`" CASCADE`)
	require.NoError(t, err, "error dropping the schema %s", schemaName)
}

func skipIfUnreachable(t testing.TB, err error) {
	if err != nil {
		t.Skipf("test database not reachable: %v", err)
	}
}
