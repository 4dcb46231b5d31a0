package connection

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/testseam"
)

const (
	logMsgConnected       = "connected to postgres database"
	logMsgConnectFailed   = "connection to postgres failed"
	logMsgDisconnected    = "disconnected from postgres database"
	logMsgDisconnectError = "failed to close postgres connection"
	logAttrDatabase       = "database"
	logAttrError          = "error"
)

// Manager owns or borrows one live database connection (pool).
//
// States: Closed -> Open -> Closed. In owned mode Open resolves the connection
// string and creates a pgx pool, Close closes it. In borrowed mode the handle
// was created elsewhere: the manager is open from the start and never closes it.
type Manager struct {
	mu       sync.Mutex
	adapter  adapters.DBAdapter
	open     bool
	owned    bool
	database string
	resolver Resolver
	options  Options
	logger   persistence.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for connect/disconnect messages.
func WithManagerLogger(logger persistence.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDatabaseName sets the database name reported by a borrowed Manager.
func WithDatabaseName(database string) ManagerOption {
	return func(m *Manager) {
		m.database = database
	}
}

// NewManager creates an owned-mode Manager. Nothing is resolved or dialed until Open.
func NewManager(resolver Resolver, options Options, managerOptions ...ManagerOption) *Manager {
	m := &Manager{
		owned:    true,
		resolver: resolver,
		options:  options.withDefaults(),
		database: resolver.DatabaseName(),
	}

	for _, option := range managerOptions {
		option(m)
	}

	return m
}

// NewManagerFromPGXPool creates a borrowed-mode Manager around an existing pgx pool.
func NewManagerFromPGXPool(pool *pgxpool.Pool, managerOptions ...ManagerOption) (*Manager, error) {
	if pool == nil {
		return nil, persistence.ErrNilDatabaseConnection
	}

	adapter := adapters.NewPGXAdapter(pool)

	return newBorrowedManager(adapter, adapter.DatabaseName(), managerOptions...), nil
}

// NewManagerFromSQLDB creates a borrowed-mode Manager around an existing sql.DB (lib/pq driver).
func NewManagerFromSQLDB(db *sql.DB, managerOptions ...ManagerOption) (*Manager, error) {
	if db == nil {
		return nil, persistence.ErrNilDatabaseConnection
	}

	return newBorrowedManager(adapters.NewSQLAdapter(db), "", managerOptions...), nil
}

// NewManagerFromSQLX creates a borrowed-mode Manager around an existing sqlx.DB (lib/pq driver).
func NewManagerFromSQLX(db *sqlx.DB, managerOptions ...ManagerOption) (*Manager, error) {
	if db == nil {
		return nil, persistence.ErrNilDatabaseConnection
	}

	return newBorrowedManager(adapters.NewSQLXAdapter(db), "", managerOptions...), nil
}

func init() {
	testseam.ManagerFromAdapter = func(adapter adapters.DBAdapter, open bool) any {
		return newManagerFromAdapter(adapter, open)
	}
}

// newManagerFromAdapter creates a borrowed-mode Manager around any adapter.
// It reports open only if open is true, which lets tests model a borrowed connection that is not ready.
func newManagerFromAdapter(adapter adapters.DBAdapter, open bool, managerOptions ...ManagerOption) *Manager {
	m := newBorrowedManager(adapter, "", managerOptions...)
	m.open = open

	return m
}

func newBorrowedManager(adapter adapters.DBAdapter, database string, managerOptions ...ManagerOption) *Manager {
	m := &Manager{
		adapter:  adapter,
		open:     true,
		owned:    false,
		database: database,
		options:  DefaultOptions(),
	}

	for _, option := range managerOptions {
		option(m)
	}

	return m
}

// Open establishes the connection. It is a no-op if the Manager is already open.
// On failure the Manager stays closed.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		return nil
	}

	if !m.owned {
		return persistence.ErrConnectionNotOpened
	}

	connectionString, err := m.resolver.Resolve()
	if err != nil {
		return err
	}

	config, err := ParsePoolConfig(connectionString, m.options)
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		m.logError(err)
		return errors.Join(persistence.ErrConnectionFailed, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		m.logError(err)
		return errors.Join(persistence.ErrConnectionFailed, err)
	}

	m.adapter = adapters.NewPGXAdapter(pool)
	m.database = config.ConnConfig.Database
	m.open = true

	if m.logger != nil {
		m.logger.Info(logMsgConnected, logAttrDatabase, m.database)
	}

	return nil
}

// Close releases the connection if owned. It is a no-op if already closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil
	}

	if !m.owned {
		m.open = false
		return nil
	}

	closeErr := m.adapter.Close()
	m.adapter = nil
	m.open = false

	if m.logger != nil {
		if closeErr != nil {
			m.logger.Warn(logMsgDisconnectError, logAttrError, closeErr.Error())
		} else {
			m.logger.Info(logMsgDisconnected, logAttrDatabase, m.database)
		}
	}

	if closeErr != nil {
		return errors.Join(persistence.ErrConnectionFailed, closeErr)
	}

	return nil
}

// IsOpen reports whether the connection is open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.open
}

// Owned reports whether the Manager created (and will close) the connection itself.
func (m *Manager) Owned() bool {
	return m.owned
}

// DatabaseName returns the resolved database name, if known.
func (m *Manager) DatabaseName() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.database
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.options
}

// Adapter returns the raw connection handle for the engine, or ErrConnectionNotOpened.
func (m *Manager) Adapter() (adapters.DBAdapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open || m.adapter == nil {
		return nil, persistence.ErrConnectionNotOpened
	}

	return m.adapter, nil
}

func (m *Manager) logError(err error) {
	if m.logger != nil {
		m.logger.Error(logMsgConnectFailed, logAttrError, err.Error(), logAttrDatabase, m.database)
	}
}
