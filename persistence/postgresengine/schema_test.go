package postgresengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SchemaBuilder_TableWithIndexes(t *testing.T) {
	// act
	schema := NewSchemaBuilder("app", "notes").
		CreateSchemaIfNeeded().
		CreateTable(`"id" TEXT PRIMARY KEY`, `"key" TEXT`).
		Index("notes_key_idx", []IndexKey{Asc("key"), Desc("id")}, true).
		Index("ignored_idx", nil, false).
		Statement("  ").
		Build()

	// assert
	assert.Equal(t, []string{
		`CREATE SCHEMA IF NOT EXISTS "app"`,
		`CREATE TABLE IF NOT EXISTS "app"."notes" ("id" TEXT PRIMARY KEY, "key" TEXT)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "notes_key_idx" ON "app"."notes" ("key", "id" DESC)`,
	}, schema.Statements())
}

func Test_SchemaBuilder_UnqualifiedTable(t *testing.T) {
	// act
	schema := NewSchemaBuilder("", `"notes"`).
		CreateSchemaIfNeeded().
		CreateTable(`"id" BIGINT PRIMARY KEY`).
		Index("notes_expr_idx", []IndexKey{Asc("(data->>'key')")}, false).
		Build()

	// assert
	assert.Equal(t, []string{
		`CREATE TABLE IF NOT EXISTS "notes" ("id" BIGINT PRIMARY KEY)`,
		`CREATE INDEX IF NOT EXISTS "notes_expr_idx" ON "notes" ((data->>'key'))`,
	}, schema.Statements())
}

func Test_Schema_StatementsIsACopy(t *testing.T) {
	// arrange
	schema := NewSchemaBuilder("", "notes").CreateTable(`"id" TEXT`).Build()

	// act
	statements := schema.Statements()
	statements[0] = "DROP TABLE notes"

	// assert
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "notes" ("id" TEXT)`, schema.Statements()[0])
	assert.False(t, schema.IsEmpty())
	assert.True(t, Schema{}.IsEmpty())
}

func Test_DocumentSchema(t *testing.T) {
	// act
	textSchema := documentSchema[string]("", "notes", engineConfig{})
	intSchema := documentSchema[int64]("app", "counters", engineConfig{
		documentDataType: "JSON",
		documentSchema:   []string{`CREATE INDEX IF NOT EXISTS "counters_name_idx" ON "app"."counters" ((data->>'name'))`},
	})
	customSchema := documentSchema[string]("", "notes", engineConfig{documentIDType: "UUID"})

	// assert
	assert.Equal(t, []string{
		`CREATE TABLE IF NOT EXISTS "notes" ("id" TEXT PRIMARY KEY, "data" JSONB)`,
	}, textSchema.Statements())

	assert.Equal(t, []string{
		`CREATE SCHEMA IF NOT EXISTS "app"`,
		`CREATE TABLE IF NOT EXISTS "app"."counters" ("id" BIGINT PRIMARY KEY, "data" JSON)`,
		`CREATE INDEX IF NOT EXISTS "counters_name_idx" ON "app"."counters" ((data->>'name'))`,
	}, intSchema.Statements())

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "notes" ("id" UUID PRIMARY KEY, "data" JSONB)`, customSchema.Statements()[0])
}
