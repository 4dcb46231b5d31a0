package postgresengine

import (
	"strings"
)

// Schema is an immutable, ordered list of DDL statements that create a table and its indexes.
// Build it with a SchemaBuilder.
type Schema struct {
	statements []string
}

// Statements returns a copy of the statements in execution order.
func (s Schema) Statements() []string {
	return append([]string(nil), s.statements...)
}

// IsEmpty reports whether the schema has no statements.
func (s Schema) IsEmpty() bool {
	return len(s.statements) == 0
}

// IndexKey is one column or parenthesised expression of an index.
type IndexKey struct {
	Column     string
	Descending bool
}

// Asc builds an ascending IndexKey.
func Asc(column string) IndexKey {
	return IndexKey{Column: column}
}

// Desc builds a descending IndexKey.
func Desc(column string) IndexKey {
	return IndexKey{Column: column, Descending: true}
}

// SchemaBuilder assembles a Schema for one table.
type SchemaBuilder struct {
	schemaName string
	table      string
	statements []string
}

// NewSchemaBuilder starts a Schema for the table, optionally qualified by schemaName.
func NewSchemaBuilder(schemaName, table string) *SchemaBuilder {
	return &SchemaBuilder{schemaName: unquote(schemaName), table: unquote(table)}
}

// CreateSchemaIfNeeded adds CREATE SCHEMA IF NOT EXISTS for a qualified table.
func (b *SchemaBuilder) CreateSchemaIfNeeded() *SchemaBuilder {
	if b.schemaName == "" {
		return b
	}

	return b.Statement("CREATE SCHEMA IF NOT EXISTS " + QuoteIdentifier(b.schemaName))
}

// CreateTable adds CREATE TABLE IF NOT EXISTS with the given column definitions.
func (b *SchemaBuilder) CreateTable(columnDefinitions ...string) *SchemaBuilder {
	return b.Statement(
		"CREATE TABLE IF NOT EXISTS " + QuotedTableName(b.schemaName, b.table) +
			" (" + strings.Join(columnDefinitions, ", ") + ")",
	)
}

// Statement adds a raw DDL statement. Blank statements are ignored.
func (b *SchemaBuilder) Statement(sql string) *SchemaBuilder {
	if strings.TrimSpace(sql) != "" {
		b.statements = append(b.statements, sql)
	}

	return b
}

// Index adds CREATE [UNIQUE] INDEX IF NOT EXISTS over the given keys.
func (b *SchemaBuilder) Index(name string, keys []IndexKey, unique bool) *SchemaBuilder {
	if len(keys) == 0 {
		return b
	}

	var sql strings.Builder
	sql.WriteString("CREATE")
	if unique {
		sql.WriteString(" UNIQUE")
	}
	sql.WriteString(" INDEX IF NOT EXISTS ")
	sql.WriteString(QuoteIdentifier(name))
	sql.WriteString(" ON ")
	sql.WriteString(QuotedTableName(b.schemaName, b.table))
	sql.WriteString(" (")

	for i, key := range keys {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(GenerateColumns([]string{key.Column}))
		if key.Descending {
			sql.WriteString(" DESC")
		}
	}

	sql.WriteString(")")

	return b.Statement(sql.String())
}

// Build returns the immutable Schema.
func (b *SchemaBuilder) Build() Schema {
	return Schema{statements: append([]string(nil), b.statements...)}
}
