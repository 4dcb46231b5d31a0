package postgresengine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

const (
	dialectPostgres = "postgres"

	logMsgSQLExecuted       = "executed sql for: "
	logMsgOperation         = "persistence operation: "
	logMsgOperationFailed   = "persistence operation failed: "
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgEngineOpened      = "opened"
	logMsgEngineClosed      = "closed"
	logMsgSchemaCreated     = "created database objects"
	logMsgCloseConnFailed   = "failed to close connection after failed open"
	logAttrError            = "error"
	logAttrErrorType        = "error_type"
	logAttrQuery            = "query"
	logAttrRows             = "rows"
	logAttrTable            = "table"
	logAttrStatements       = "statements"
	logAttrDurationMS       = "duration_ms"
	operationOpen           = "open"
	operationClear          = "clear"
	operationGetPage        = "get_page_by_filter"
	operationGetList        = "get_list_by_filter"
	operationGetCount       = "get_count_by_filter"
	operationGetOneRandom   = "get_one_random"
	operationCreate         = "create"
	operationDeleteByFilter = "delete_by_filter"
	aliasCount              = "count"
	aliasRegclass           = "regclass"
	castJsonb               = "?::jsonb"
)

// Lifecycle states of an engine.
const (
	stateClosed int32 = iota
	stateOpening
	stateOpen
	stateClosing
)

var dialect = goqu.Dialect(dialectPostgres)

// Engine is a generic persistence engine for records of type T stored in one Postgres table.
//
// Records are converted to and from column maps by a persistence.Codec. Filters, sort
// clauses and select lists are caller-supplied persistence.RawSQL fragments that are
// spliced into the generated statements verbatim.
//
// An Engine is safe for concurrent use once opened; Open and Close are serialized.
type Engine[T any] struct {
	instrumentation

	codec       persistence.Codec[T]
	schemaName  string
	table       string
	schema      Schema
	manager     *connection.Manager
	owned       bool
	maxPageSize int64
	random      func(n int64) int64
	config      engineConfig

	mu    sync.Mutex
	state atomic.Int32
}

// NewEngine creates a closed Engine for the given table.
//
// Exactly one of WithConnection (borrowed) or WithConnectionConfig (owned) must be supplied.
func NewEngine[T any](tableName string, codec persistence.Codec[T], options ...Option) (*Engine[T], error) {
	tableName = unquote(tableName)
	if tableName == "" {
		return nil, persistence.ErrEmptyTableName
	}

	if codec == nil {
		return nil, persistence.ErrNilCodec
	}

	config := engineConfig{}
	for _, option := range options {
		if err := option(&config); err != nil {
			return nil, err
		}
	}

	manager, owned, err := managerFromConfig(config)
	if err != nil {
		return nil, err
	}

	connOptions := manager.Options()

	maxPageSize := int64(connOptions.MaxPageSize)
	if config.maxPageSize > 0 {
		maxPageSize = config.maxPageSize
	}

	debug := connOptions.Debug
	if config.debug != nil {
		debug = *config.debug
	}

	random := config.random
	if random == nil {
		random = rand.Int64N
	}

	e := &Engine[T]{
		instrumentation: instrumentation{
			quotedTable:      QuotedTableName(config.schemaName, tableName),
			debug:            debug,
			logger:           config.logger,
			contextualLogger: config.contextualLogger,
			metricsCollector: config.metricsCollector,
			tracingCollector: config.tracingCollector,
		},
		codec:       codec,
		schemaName:  config.schemaName,
		table:       tableName,
		manager:     manager,
		owned:       owned,
		maxPageSize: maxPageSize,
		random:      random,
		config:      config,
	}

	if config.schema != nil {
		e.schema = *config.schema
	}

	return e, nil
}

func managerFromConfig(config engineConfig) (*connection.Manager, bool, error) {
	switch {
	case config.manager != nil && config.resolver != nil:
		return nil, false, persistence.ErrConflictingConnectionCfg

	case config.manager != nil:
		return config.manager, false, nil

	case config.resolver != nil:
		var managerOptions []connection.ManagerOption
		if config.logger != nil {
			managerOptions = append(managerOptions, connection.WithManagerLogger(config.logger))
		}

		return connection.NewManager(*config.resolver, config.connOptions, managerOptions...), true, nil

	default:
		return nil, false, persistence.ErrNoConnection
	}
}

// TableName returns the quoted, schema-qualified table name.
func (e *Engine[T]) TableName() string {
	return e.quotedTable
}

// Schema returns the statements Open runs when the table does not exist.
func (e *Engine[T]) Schema() Schema {
	return e.schema
}

// MaxPageSize returns the effective maximum page size.
func (e *Engine[T]) MaxPageSize() int64 {
	return e.maxPageSize
}

// IsOpen reports whether the engine is open.
func (e *Engine[T]) IsOpen() bool {
	return e.state.Load() == stateOpen
}

// Open makes the engine operational. It is a no-op if the engine is already open.
//
// An owned connection is opened; a borrowed one must already be open. Then, if the
// table does not exist, every schema statement is executed in order. The first failing
// statement aborts Open: statements that already succeeded are not rolled back and the
// engine stays closed.
func (e *Engine[T]) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Load() == stateOpen {
		return nil
	}

	e.state.Store(stateOpening)

	observer, ctx := e.startOperation(ctx, operationOpen)

	if err := e.openConnection(ctx); err != nil {
		e.state.Store(stateClosed)
		observer.finishError(err)

		return err
	}

	created, err := e.ensureSchema(ctx)
	if err != nil {
		if e.owned {
			if closeErr := e.manager.Close(); closeErr != nil {
				e.logWarn(ctx, logMsgCloseConnFailed, closeErr)
			}
		}

		e.state.Store(stateClosed)
		observer.finishError(err)

		return err
	}

	e.state.Store(stateOpen)
	observer.finishSuccess(created)
	e.logOperation(ctx, logMsgEngineOpened, logAttrTable, e.quotedTable)

	return nil
}

func (e *Engine[T]) openConnection(ctx context.Context) error {
	if e.owned {
		return e.manager.Open(ctx)
	}

	if !e.manager.IsOpen() {
		return persistence.ErrConnectionNotOpened
	}

	return nil
}

// ensureSchema runs the schema statements unless the table already exists.
// It returns the number of statements executed.
func (e *Engine[T]) ensureSchema(ctx context.Context) (int, error) {
	if e.schema.IsEmpty() {
		return 0, nil
	}

	db, err := e.manager.Adapter()
	if err != nil {
		return 0, err
	}

	exists, err := e.tableExists(ctx, db)
	if err != nil {
		return 0, errors.Join(persistence.ErrSchemaCreationFailed, err)
	}

	if exists {
		return 0, nil
	}

	statements := e.schema.Statements()
	for _, statement := range statements {
		if _, execErr := e.exec(ctx, db, operationOpen, statement); execErr != nil {
			e.logError(ctx, logMsgOperationFailed+operationOpen, execErr, logAttrQuery, statement)
			return 0, errors.Join(persistence.ErrSchemaCreationFailed, execErr)
		}
	}

	e.logOperation(ctx, logMsgSchemaCreated, logAttrTable, e.quotedTable, logAttrStatements, len(statements))

	return len(statements), nil
}

func (e *Engine[T]) tableExists(ctx context.Context, db adapters.DBAdapter) (bool, error) {
	query := "SELECT to_regclass($1)::text AS " + aliasRegclass

	records, err := e.queryRecords(ctx, db, operationOpen, query, e.quotedTable)
	if err != nil {
		return false, err
	}

	if len(records) == 0 {
		return false, nil
	}

	_, exists := records[0][aliasRegclass]

	return exists, nil
}

// Close releases the connection if the engine owns it. It is a no-op if the engine is already closed.
func (e *Engine[T]) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Load() == stateClosed {
		return nil
	}

	e.state.Store(stateClosing)
	defer e.state.Store(stateClosed)

	if e.owned {
		if err := e.manager.Close(); err != nil {
			e.logError(ctx, logMsgOperationFailed+logMsgEngineClosed, err)
			return err
		}
	}

	e.logOperation(ctx, logMsgEngineClosed, logAttrTable, e.quotedTable)

	return nil
}

// Clear deletes every row of the table.
func (e *Engine[T]) Clear(ctx context.Context) error {
	return e.observe(ctx, operationClear, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		if e.table == "" {
			return 0, persistence.ErrClearFailed
		}

		affected, err := e.exec(ctx, db, operationClear, "DELETE FROM "+e.quotedTable)
		if err != nil {
			return 0, errors.Join(persistence.ErrClearFailed, err)
		}

		return int(affected), nil
	})
}

// connection returns the adapter of an open engine.
func (e *Engine[T]) connection() (adapters.DBAdapter, error) {
	if e.state.Load() != stateOpen {
		return nil, persistence.ErrConnectionNotOpened
	}

	return e.manager.Adapter()
}

// observe runs fn as one traced, measured and logged operation on an open engine.
// fn returns the number of rows returned or affected.
func (e *Engine[T]) observe(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, db adapters.DBAdapter) (int, error),
) error {
	observer, ctx := e.startOperation(ctx, operation)

	db, err := e.connection()
	if err != nil {
		observer.finishError(err)
		return err
	}

	rows, err := fn(ctx, db)
	if err != nil {
		observer.finishError(err)
		return err
	}

	observer.finishSuccess(rows)

	return nil
}

// tableIdentifier returns the goqu identifier of the (schema-qualified) table.
func (e *Engine[T]) tableIdentifier() exp.IdentifierExpression {
	if e.schemaName == "" {
		return goqu.T(e.table)
	}

	return goqu.S(e.schemaName).Table(e.table)
}

// rawWhere turns a caller-supplied filter into a WHERE expression, or nil when the filter is empty.
func rawWhere(filter persistence.RawSQL) exp.Expression {
	if filter.IsEmpty() {
		return nil
	}

	return goqu.L(string(filter))
}
