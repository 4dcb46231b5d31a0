package postgresengine

import (
	"context"
	"errors"
	"reflect"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

const (
	colData                 = "data"
	defaultDocumentIDType   = "TEXT"
	defaultDocumentNumType  = "BIGINT"
	defaultDocumentDataType = "JSONB"
	mergeJsonb              = `"data" || ?::jsonb`
)

// JSONDocumentEngine stores each record as one JSON document in a two-column table ("id", "data").
//
// The whole record, identity included, is serialized into "data". UpdatePartially merges
// the patch into the stored document (a shallow jsonb merge) instead of setting columns.
type JSONDocumentEngine[T persistence.Identifiable[K], K comparable] struct {
	*IdentifiableEngine[T, K]
}

// NewJSONDocumentEngine creates a closed JSONDocumentEngine for the given table.
//
// Unless WithSchema is supplied, Open creates the table as
// ("id" <id type> PRIMARY KEY, "data" JSONB) followed by any WithDocumentSchema statements.
// The id type is TEXT for string identities and BIGINT for integer identities.
func NewJSONDocumentEngine[T persistence.Identifiable[K], K comparable](
	tableName string,
	options ...Option,
) (*JSONDocumentEngine[T, K], error) {

	engine, err := NewEngine[T](tableName, DocumentCodec[T, K]{}, options...)
	if err != nil {
		return nil, err
	}

	if engine.config.schema == nil {
		engine.schema = documentSchema[K](engine.schemaName, engine.table, engine.config)
	}

	identifiable, err := newIdentifiableEngine[T, K](engine)
	if err != nil {
		return nil, err
	}

	return &JSONDocumentEngine[T, K]{IdentifiableEngine: identifiable}, nil
}

func documentSchema[K comparable](schemaName, table string, config engineConfig) Schema {
	idType := config.documentIDType
	if idType == "" {
		idType = documentIDType[K]()
	}

	dataType := config.documentDataType
	if dataType == "" {
		dataType = defaultDocumentDataType
	}

	builder := NewSchemaBuilder(schemaName, table).
		CreateSchemaIfNeeded().
		CreateTable(
			QuoteIdentifier(colID)+" "+idType+" PRIMARY KEY",
			QuoteIdentifier(colData)+" "+dataType,
		)

	for _, statement := range config.documentSchema {
		builder.Statement(statement)
	}

	return builder.Build()
}

func documentIDType[K comparable]() string {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return defaultDocumentNumType
	default:
		return defaultDocumentIDType
	}
}

// UpdatePartially merges patch into the stored document of the row with the given id
// and returns the merged record. Top-level keys of patch replace those of the document.
func (e *JSONDocumentEngine[T, K]) UpdatePartially(ctx context.Context, id K, patch persistence.RecordMap) (T, error) {
	var updated T
	var zeroID K

	if id == zeroID || patch == nil {
		return updated, nil
	}

	err := e.observe(ctx, operationUpdatePartial, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		patchJSON, err := persistence.JSON.MarshalToString(map[string]any(patch.Without(colID)))
		if err != nil {
			return 0, errors.Join(persistence.ErrEncodingRecordFailed, err)
		}

		sqlQuery, args, err := e.buildUpdateQuery(id, goqu.Record{colData: goqu.L(mergeJsonb, patchJSON)})
		if err != nil {
			return 0, err
		}

		var found bool
		updated, found, err = e.queryFirst(ctx, db, operationUpdatePartial, sqlQuery, args...)

		return boolToRows(found), err
	})
	if err != nil {
		var empty T
		return empty, err
	}

	return updated, nil
}

// DocumentCodec maps a record to the ("id", "data") row of a JSON document table.
// A row whose "data" is missing or NULL holds no record: FromRow returns persistence.ErrAbsentRecord.
type DocumentCodec[T persistence.Identifiable[K], K comparable] struct{}

// ToRow implements persistence.Codec.
func (DocumentCodec[T, K]) ToRow(item T) (persistence.RecordMap, error) {
	if isNil(item) {
		return nil, nil
	}

	data, err := persistence.JSONCodec[T]{}.ToRow(item)
	if err != nil {
		return nil, err
	}

	return persistence.RecordMap{
		colID:   item.GetID(),
		colData: map[string]any(data),
	}, nil
}

// FromRow implements persistence.Codec.
func (DocumentCodec[T, K]) FromRow(row persistence.RecordMap) (T, error) {
	var empty T

	data, ok := row[colData]
	if !ok || data == nil {
		return empty, persistence.ErrAbsentRecord
	}

	switch document := data.(type) {
	case string:
		return decodeDocument[T]([]byte(document))
	case []byte:
		return decodeDocument[T](document)
	default:
		return persistence.DecodeInto[T](document)
	}
}

func decodeDocument[T any](document []byte) (T, error) {
	var item T

	if err := persistence.JSON.Unmarshal(document, &item); err != nil {
		return item, errors.Join(persistence.ErrDecodingRecordFailed, err)
	}

	return item, nil
}
