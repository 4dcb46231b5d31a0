package helper

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/relational-persistence-go/persistence/postgresengine"
)

// Note is the string-keyed record the engine test suites persist.
type Note struct {
	ID      string   `json:"id"`
	Key     string   `json:"key"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// GetID implements persistence.Identifiable.
func (n *Note) GetID() string {
	if n == nil {
		return ""
	}

	return n.ID
}

// SetID implements persistence.Identifiable.
func (n *Note) SetID(id string) {
	n.ID = id
}

// Counter is the integer-keyed record the engine test suites persist.
type Counter struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// GetID implements persistence.Identifiable.
func (c *Counter) GetID() int64 {
	if c == nil {
		return 0
	}

	return c.ID
}

// SetID implements persistence.Identifiable.
func (c *Counter) SetID(id int64) {
	c.ID = id
}

// FixtureNote builds a Note without identity.
func FixtureNote(key, content string, tags ...string) *Note {
	return &Note{Key: key, Content: content, Tags: tags}
}

// GivenUniqueTableName returns a table name that no other test uses.
func GivenUniqueTableName(t testing.TB, prefix string) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return prefix + "_" + strings.ReplaceAll(id.String(), "-", "")
}

// NotesColumnSchema returns the schema of a column-mapped Note table.
func NotesColumnSchema(schemaName, table string) postgresengine.Schema {
	return postgresengine.NewSchemaBuilder(schemaName, table).
		CreateSchemaIfNeeded().
		CreateTable(
			`"id" TEXT PRIMARY KEY`,
			`"key" TEXT NOT NULL`,
			`"content" TEXT`,
			`"tags" JSONB`,
		).
		Index(table+"_key_idx", []postgresengine.IndexKey{postgresengine.Asc("key")}, false).
		Build()
}

// CountersColumnSchema returns the schema of a column-mapped Counter table.
func CountersColumnSchema(schemaName, table string) postgresengine.Schema {
	return postgresengine.NewSchemaBuilder(schemaName, table).
		CreateSchemaIfNeeded().
		CreateTable(
			`"id" BIGINT PRIMARY KEY`,
			`"name" TEXT NOT NULL`,
			`"value" BIGINT NOT NULL DEFAULT 0`,
		).
		Build()
}
