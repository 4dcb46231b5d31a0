package postgresengine

import (
	"context"
	"reflect"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

const (
	colID                   = "id"
	operationGetListByIDs   = "get_list_by_ids"
	operationGetOneByID     = "get_one_by_id"
	operationSet            = "set"
	operationUpdate         = "update"
	operationUpdatePartial  = "update_partially"
	operationDeleteByID     = "delete_by_id"
	operationDeleteByIDs    = "delete_by_ids"
	logMsgRecordNotAffected = "no row matched the id"
	logAttrID               = "id"
)

// IdentifiableEngine extends Engine with operations keyed by the records' "id" column.
//
// Records are persisted with their identity in the "id" column. Mutations return the
// row as it is in the database afterwards; a missing row yields the zero value and false
// (or an empty list), never an error.
type IdentifiableEngine[T persistence.Identifiable[K], K comparable] struct {
	*Engine[T]

	generateID persistence.IDGenerator[K]
}

// NewIdentifiableEngine creates a closed IdentifiableEngine for the given table.
//
// Identities of records created without one are generated: by WithIDGenerator if set,
// otherwise with random UUID strings when K is a string type. WithoutIDGeneration turns this off.
func NewIdentifiableEngine[T persistence.Identifiable[K], K comparable](
	tableName string,
	codec persistence.Codec[T],
	options ...Option,
) (*IdentifiableEngine[T, K], error) {

	engine, err := NewEngine[T](tableName, codec, options...)
	if err != nil {
		return nil, err
	}

	return newIdentifiableEngine[T, K](engine)
}

func newIdentifiableEngine[T persistence.Identifiable[K], K comparable](engine *Engine[T]) (*IdentifiableEngine[T, K], error) {
	generateID, err := idGeneratorFromConfig[K](engine.config)
	if err != nil {
		return nil, err
	}

	return &IdentifiableEngine[T, K]{Engine: engine, generateID: generateID}, nil
}

func idGeneratorFromConfig[K comparable](config engineConfig) (persistence.IDGenerator[K], error) {
	if config.noIDGeneration {
		return nil, nil
	}

	if config.idGenerator != nil {
		generator, ok := config.idGenerator.(persistence.IDGenerator[K])
		if !ok {
			return nil, persistence.ErrInvalidIDGenerator
		}

		return generator, nil
	}

	idType := reflect.TypeFor[K]()
	if idType.Kind() != reflect.String {
		return nil, nil
	}

	return func() K {
		return reflect.ValueOf(persistence.NewUUID()).Convert(idType).Interface().(K)
	}, nil
}

// GetListByIDs returns the records whose ids are in ids. Unknown ids are ignored.
func (e *IdentifiableEngine[T, K]) GetListByIDs(ctx context.Context, ids []K) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	var items []T

	err := e.observe(ctx, operationGetListByIDs, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildSelectQuery(selectQuery{
			where: goqu.C(colID).In(ids),
			skip:  persistence.NoSkip,
		})
		if err != nil {
			return 0, err
		}

		items, err = e.queryItems(ctx, db, operationGetListByIDs, sqlQuery, args...)

		return len(items), err
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetOneByID returns the record with the given id. The boolean is false when it does not exist.
func (e *IdentifiableEngine[T, K]) GetOneByID(ctx context.Context, id K) (T, bool, error) {
	var item T
	var found bool

	err := e.observe(ctx, operationGetOneByID, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildSelectQuery(selectQuery{
			where: goqu.C(colID).Eq(id),
			skip:  persistence.NoSkip,
		})
		if err != nil {
			return 0, err
		}

		item, found, err = e.queryFirst(ctx, db, operationGetOneByID, sqlQuery, args...)

		return boolToRows(found), err
	})
	if err != nil {
		var empty T
		return empty, false, err
	}

	return item, found, nil
}

// Create inserts the record, generating an identity first if it has none and generation is enabled.
// The caller's record is not modified.
func (e *IdentifiableEngine[T, K]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if isNil(item) {
		return zero, nil
	}

	withID, err := e.withGeneratedID(item)
	if err != nil {
		return zero, err
	}

	return e.Engine.Create(ctx, withID)
}

// Set inserts the record or, if a row with its id exists, replaces every column of that row.
// An identity is generated first if the record has none. A nil record, or one that still
// has no identity afterwards, is a no-op that returns the zero value.
func (e *IdentifiableEngine[T, K]) Set(ctx context.Context, item T) (T, error) {
	var stored T
	var zeroID K

	if isNil(item) {
		return stored, nil
	}

	withID, err := e.withGeneratedID(item)
	if err != nil {
		return stored, err
	}

	if withID.GetID() == zeroID {
		return stored, nil
	}

	err = e.observe(ctx, operationSet, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		row, err := e.codec.ToRow(withID)
		if err != nil {
			return 0, encodeError(err)
		}

		sqlQuery, args, err := e.buildInsertQuery(row, true)
		if err != nil {
			return 0, err
		}

		var found bool
		stored, found, err = e.queryFirst(ctx, db, operationSet, sqlQuery, args...)

		return boolToRows(found), err
	})
	if err != nil {
		var empty T
		return empty, err
	}

	return stored, nil
}

// Update replaces every column except id of the row with the record's id.
// It returns the zero value if the record is nil, its id is zero, or no such row exists.
func (e *IdentifiableEngine[T, K]) Update(ctx context.Context, item T) (T, error) {
	var updated T
	var zeroID K

	if isNil(item) || item.GetID() == zeroID {
		return updated, nil
	}

	err := e.observe(ctx, operationUpdate, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		row, err := e.codec.ToRow(item)
		if err != nil {
			return 0, encodeError(err)
		}

		set, err := toRecord(row.Without(colID))
		if err != nil {
			return 0, err
		}

		if len(set) == 0 {
			set = goqu.Record{colID: item.GetID()}
		}

		sqlQuery, args, err := e.buildUpdateQuery(item.GetID(), set)
		if err != nil {
			return 0, err
		}

		var found bool
		updated, found, err = e.queryFirst(ctx, db, operationUpdate, sqlQuery, args...)
		if err == nil && !found {
			e.logOperation(ctx, logMsgRecordNotAffected, logAttrID, item.GetID())
		}

		return boolToRows(found), err
	})
	if err != nil {
		var empty T
		return empty, err
	}

	return updated, nil
}

// UpdatePartially sets only the columns named in patch on the row with the given id.
// The id column itself is never changed. A zero id or nil patch returns the zero value.
func (e *IdentifiableEngine[T, K]) UpdatePartially(ctx context.Context, id K, patch persistence.RecordMap) (T, error) {
	var updated T
	var zeroID K

	if id == zeroID || patch == nil {
		return updated, nil
	}

	columns := patch.Without(colID)
	if len(columns) == 0 {
		item, _, err := e.GetOneByID(ctx, id)
		return item, err
	}

	err := e.observe(ctx, operationUpdatePartial, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		set, err := toRecord(columns)
		if err != nil {
			return 0, err
		}

		sqlQuery, args, err := e.buildUpdateQuery(id, set)
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

// DeleteByID deletes the row with the given id and returns it. The boolean is false when it did not exist.
func (e *IdentifiableEngine[T, K]) DeleteByID(ctx context.Context, id K) (T, bool, error) {
	var deleted T
	var found bool

	err := e.observe(ctx, operationDeleteByID, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildDeleteQuery(goqu.C(colID).Eq(id), true)
		if err != nil {
			return 0, err
		}

		deleted, found, err = e.queryFirst(ctx, db, operationDeleteByID, sqlQuery, args...)

		return boolToRows(found), err
	})
	if err != nil {
		var empty T
		return empty, false, err
	}

	return deleted, found, nil
}

// DeleteByIDs deletes every row whose id is in ids. Unknown ids are ignored.
func (e *IdentifiableEngine[T, K]) DeleteByIDs(ctx context.Context, ids []K) error {
	if len(ids) == 0 {
		return nil
	}

	return e.observe(ctx, operationDeleteByIDs, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildDeleteQuery(goqu.C(colID).In(ids), false)
		if err != nil {
			return 0, err
		}

		affected, err := e.exec(ctx, db, operationDeleteByIDs, sqlQuery, args...)

		return int(affected), err
	})
}

// withGeneratedID returns item, or a copy of it carrying a fresh identity when it has none.
func (e *IdentifiableEngine[T, K]) withGeneratedID(item T) (T, error) {
	var zeroID K

	if e.generateID == nil || item.GetID() != zeroID {
		return item, nil
	}

	clone, err := persistence.DecodeInto[T](item)
	if err != nil {
		return item, err
	}

	clone.SetID(e.generateID())

	return clone, nil
}

func boolToRows(found bool) int {
	if found {
		return 1
	}

	return 0
}
