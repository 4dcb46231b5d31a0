package postgresengine

import (
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

type builderNote struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

func newBuilderEngine(schemaName string) *Engine[*builderNote] {
	return &Engine[*builderNote]{
		instrumentation: instrumentation{quotedTable: QuotedTableName(schemaName, "notes")},
		schemaName:      schemaName,
		table:           "notes",
		maxPageSize:     100,
	}
}

func Test_BuildSelectQuery_FilterSortPaging(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	sqlQuery, args, err := engine.buildSelectQuery(selectQuery{
		where: rawWhere(`"key" = 'Key 1'`),
		sort:  `"key" DESC, "id"`,
		skip:  20,
		take:  10,
	})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `SELECT * FROM "notes"`)
	assert.Contains(t, sqlQuery, `WHERE "key" = 'Key 1'`)
	assert.True(t, strings.HasSuffix(sqlQuery, ` ORDER BY "key" DESC, "id" LIMIT 10 OFFSET 20`), "unexpected tail in %s", sqlQuery)
	assert.Empty(t, args)
}

func Test_BuildSelectQuery_WithoutClauses(t *testing.T) {
	// arrange
	engine := newBuilderEngine("app")

	// act
	sqlQuery, _, err := engine.buildSelectQuery(selectQuery{skip: persistence.NoSkip, selectExpr: `"id"`})

	// assert
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "app"."notes"`, sqlQuery)
}

func Test_BuildSelectQuery_ZeroSkipKeepsOffset(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	sqlQuery, _, err := engine.buildSelectQuery(selectQuery{skip: 0, take: 5})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, " LIMIT 5 OFFSET 0")
}

func Test_BuildSelectQuery_IDList(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	sqlQuery, args, err := engine.buildSelectQuery(selectQuery{
		where: goqu.C(colID).In([]string{"n-1", "n-2"}),
		skip:  persistence.NoSkip,
	})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"id" IN ($1, $2)`)
	assert.Equal(t, []any{"n-1", "n-2"}, args)
}

func Test_BuildInsertQuery_BindsCompositeValuesAsJSONB(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")
	row := persistence.RecordMap{"id": "n-1", "key": "Key 1", "tags": []any{"a"}}

	// act
	sqlQuery, args, err := engine.buildInsertQuery(row, false)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "notes" ("id", "key", "tags")`)
	assert.Contains(t, sqlQuery, `$3::jsonb`)
	assert.Contains(t, sqlQuery, `RETURNING *`)
	assert.NotContains(t, sqlQuery, "ON CONFLICT")
	assert.Equal(t, []any{"n-1", "Key 1", `["a"]`}, args)
}

func Test_BuildInsertQuery_Upsert(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")
	row := persistence.RecordMap{"id": "n-1", "key": "Key 1"}

	// act
	sqlQuery, _, err := engine.buildInsertQuery(row, true)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `ON CONFLICT (id) DO UPDATE SET`)
	assert.Contains(t, sqlQuery, `"excluded"."key"`)
	assert.NotContains(t, sqlQuery, `"excluded"."id"`)
}

func Test_ExcludedRecord_IDOnlyRow(t *testing.T) {
	record := excludedRecord(persistence.RecordMap{"id": "n-1"})

	assert.Equal(t, goqu.Record{"id": goqu.I("excluded.id")}, record)
}

func Test_BuildUpdateQuery(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	sqlQuery, args, err := engine.buildUpdateQuery("n-1", goqu.Record{"key": "Key 2"})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `UPDATE "notes" SET "key"=$1`)
	assert.Contains(t, sqlQuery, `"id" = $2`)
	assert.Contains(t, sqlQuery, `RETURNING *`)
	assert.Equal(t, []any{"Key 2", "n-1"}, args)
}

func Test_BuildUpdateQuery_JSONMerge(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	sqlQuery, args, err := engine.buildUpdateQuery("n-1", goqu.Record{colData: goqu.L(mergeJsonb, `{"content":"x"}`)})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `SET "data"="data" || $1::jsonb`)
	assert.Equal(t, []any{`{"content":"x"}`, "n-1"}, args)
}

func Test_BuildDeleteQuery(t *testing.T) {
	// arrange
	engine := newBuilderEngine("")

	// act
	all, _, allErr := engine.buildDeleteQuery(nil, false)
	filtered, _, filteredErr := engine.buildDeleteQuery(rawWhere(`"key" LIKE 'Key%'`), true)

	// assert
	require.NoError(t, allErr)
	require.NoError(t, filteredErr)
	assert.Equal(t, `DELETE FROM "notes"`, all)
	assert.Contains(t, filtered, `WHERE "key" LIKE 'Key%'`)
	assert.Contains(t, filtered, `RETURNING *`)
}

func Test_ToInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int64
	}{
		{"int64", int64(3), 3},
		{"int32", int32(4), 4},
		{"int", 5, 5},
		{"float64", float64(6), 6},
		{"string", "7", 7},
		{"bytes", []byte("8"), 8},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := toInt64(tt.value)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, err := toInt64(true)
	assert.Error(t, err)
}

func Test_IsNil(t *testing.T) {
	assert.True(t, isNil[*builderNote](nil))
	assert.True(t, isNil[map[string]any](nil))
	assert.True(t, isNil[any](nil))
	assert.False(t, isNil(&builderNote{}))
	assert.False(t, isNil(builderNote{}), "an all-zero value is still a record")
	assert.False(t, isNil(0))
}
