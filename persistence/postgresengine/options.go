package postgresengine

import (
	"strings"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
)

// engineConfig collects everything the functional options can set.
// It is not generic so that one Option type serves every engine flavor.
type engineConfig struct {
	schemaName       string
	schema           *Schema
	manager          *connection.Manager
	resolver         *connection.Resolver
	connOptions      connection.Options
	maxPageSize      int64
	debug            *bool
	logger           persistence.Logger
	contextualLogger persistence.ContextualLogger
	metricsCollector persistence.MetricsCollector
	tracingCollector persistence.TracingCollector
	idGenerator      any
	noIDGeneration   bool
	documentIDType   string
	documentDataType string
	documentSchema   []string
	random           func(n int64) int64
}

// Option defines a functional option for configuring an engine.
type Option func(*engineConfig) error

// WithSchemaName sets the database schema that qualifies the table name.
func WithSchemaName(schemaName string) Option {
	return func(c *engineConfig) error {
		c.schemaName = unquote(schemaName)
		return nil
	}
}

// WithSchema sets the statements that create the table and its indexes when the table does not exist yet.
func WithSchema(schema Schema) Option {
	return func(c *engineConfig) error {
		c.schema = &schema
		return nil
	}
}

// WithConnection makes the engine borrow an existing connection manager.
// The engine never opens or closes a borrowed connection.
func WithConnection(manager *connection.Manager) Option {
	return func(c *engineConfig) error {
		if manager == nil {
			return persistence.ErrNilDatabaseConnection
		}

		c.manager = manager

		return nil
	}
}

// WithConnectionConfig makes the engine own its connection: it is opened by Open and closed by Close.
func WithConnectionConfig(resolver connection.Resolver, options connection.Options) Option {
	return func(c *engineConfig) error {
		c.resolver = &resolver
		c.connOptions = options

		return nil
	}
}

// WithMaxPageSize sets the upper bound (and default) for the number of records per page.
func WithMaxPageSize(maxPageSize int64) Option {
	return func(c *engineConfig) error {
		if maxPageSize > 0 {
			c.maxPageSize = maxPageSize
		}

		return nil
	}
}

// WithDebug enables logging of every generated SQL statement at debug level.
func WithDebug(debug bool) Option {
	return func(c *engineConfig) error {
		c.debug = &debug
		return nil
	}
}

// WithLogger sets the logger for the engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (only with WithDebug)
// Info level: Operation names, row counts, durations, lifecycle changes
// Warn level: Non-critical issues like failures to close rows
// Error level: Failures that make an operation fail.
func WithLogger(logger persistence.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the engine.
// The contextual logger receives the same messages as the Logger, plus the operation's context,
// which lets it correlate log records with the active trace.
func WithContextualLogger(logger persistence.ContextualLogger) Option {
	return func(c *engineConfig) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the engine.
// It receives operation durations, returned row counts and database errors.
func WithMetrics(collector persistence.MetricsCollector) Option {
	return func(c *engineConfig) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the engine.
// Every public operation runs inside a span named "persistence.<operation>".
func WithTracing(collector persistence.TracingCollector) Option {
	return func(c *engineConfig) error {
		c.tracingCollector = collector
		return nil
	}
}

// WithIDGenerator sets the generator for identities of records created without one.
// It only applies to identifiable engines; K must match the engine's identity type.
func WithIDGenerator[K comparable](generator persistence.IDGenerator[K]) Option {
	return func(c *engineConfig) error {
		if generator == nil {
			return persistence.ErrInvalidIDGenerator
		}

		c.idGenerator = generator
		c.noIDGeneration = false

		return nil
	}
}

// WithoutIDGeneration disables identity generation: records are stored with whatever identity they carry.
func WithoutIDGeneration() Option {
	return func(c *engineConfig) error {
		c.idGenerator = nil
		c.noIDGeneration = true

		return nil
	}
}

// WithDocumentColumnTypes overrides the SQL types of the id and data columns of a JSON document table.
func WithDocumentColumnTypes(idType, dataType string) Option {
	return func(c *engineConfig) error {
		c.documentIDType = strings.TrimSpace(idType)
		c.documentDataType = strings.TrimSpace(dataType)

		return nil
	}
}

// WithDocumentSchema appends statements (typically expression indexes) to the default JSON document schema.
func WithDocumentSchema(statements ...string) Option {
	return func(c *engineConfig) error {
		c.documentSchema = append(c.documentSchema, statements...)
		return nil
	}
}

// WithRandomSource replaces the source GetOneRandom uses to pick an offset in [0, n).
func WithRandomSource(random func(n int64) int64) Option {
	return func(c *engineConfig) error {
		if random != nil {
			c.random = random
		}

		return nil
	}
}

// unquote strips one pair of surrounding double quotes.
func unquote(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name[1 : len(name)-1]
	}

	return name
}
