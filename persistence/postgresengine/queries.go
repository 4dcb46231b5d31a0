package postgresengine

import (
	"context"
	"errors"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

type (
	sqlQueryString = string
	sqlArgs        = []any
)

// selectQuery describes one SELECT statement. Negative skip and non-positive take are omitted.
type selectQuery struct {
	where      exp.Expression
	sort       persistence.RawSQL
	selectExpr persistence.RawSQL
	skip       int64
	take       int64
}

// GetPageByFilter returns one page of records matching filter, ordered by sort.
//
// A Take of zero defaults to the maximum page size and larger values are clamped to it.
// A negative Skip omits the OFFSET. When paging.WantTotal is set, the total number of
// matching rows is computed with a separate COUNT(*) statement.
func (e *Engine[T]) GetPageByFilter(
	ctx context.Context,
	filter persistence.RawSQL,
	paging persistence.PagingParams,
	sort persistence.RawSQL,
	selectExpr persistence.RawSQL,
) (persistence.Page[T], error) {

	var page persistence.Page[T]

	err := e.observe(ctx, operationGetPage, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildSelectQuery(selectQuery{
			where:      rawWhere(filter),
			sort:       sort,
			selectExpr: selectExpr,
			skip:       paging.Skip,
			take:       paging.EffectiveTake(e.maxPageSize),
		})
		if err != nil {
			return 0, err
		}

		items, err := e.queryItems(ctx, db, operationGetPage, sqlQuery, args...)
		if err != nil {
			return 0, err
		}

		page.Items = items

		if paging.WantTotal {
			total, countErr := e.count(ctx, db, operationGetPage, rawWhere(filter))
			if countErr != nil {
				return 0, countErr
			}

			page.Total = &total
		}

		return len(items), nil
	})
	if err != nil {
		return persistence.Page[T]{}, err
	}

	return page, nil
}

// GetListByFilter returns every record matching filter, ordered by sort, without paging.
func (e *Engine[T]) GetListByFilter(
	ctx context.Context,
	filter persistence.RawSQL,
	sort persistence.RawSQL,
	selectExpr persistence.RawSQL,
) ([]T, error) {

	var items []T

	err := e.observe(ctx, operationGetList, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildSelectQuery(selectQuery{
			where:      rawWhere(filter),
			sort:       sort,
			selectExpr: selectExpr,
			skip:       persistence.NoSkip,
		})
		if err != nil {
			return 0, err
		}

		items, err = e.queryItems(ctx, db, operationGetList, sqlQuery, args...)

		return len(items), err
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetCountByFilter returns the number of rows matching filter.
func (e *Engine[T]) GetCountByFilter(ctx context.Context, filter persistence.RawSQL) (int64, error) {
	var total int64

	err := e.observe(ctx, operationGetCount, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		var err error
		total, err = e.count(ctx, db, operationGetCount, rawWhere(filter))

		return 1, err
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// GetOneRandom returns a uniformly chosen record matching filter.
// The boolean is false when no row matches.
func (e *Engine[T]) GetOneRandom(ctx context.Context, filter persistence.RawSQL) (T, bool, error) {
	var item T
	var found bool

	err := e.observe(ctx, operationGetOneRandom, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		total, err := e.count(ctx, db, operationGetOneRandom, rawWhere(filter))
		if err != nil || total == 0 {
			return 0, err
		}

		sqlQuery, args, err := e.buildSelectQuery(selectQuery{
			where: rawWhere(filter),
			skip:  e.random(total),
			take:  1,
		})
		if err != nil {
			return 0, err
		}

		item, found, err = e.queryFirst(ctx, db, operationGetOneRandom, sqlQuery, args...)
		if !found {
			return 0, err
		}

		return 1, err
	})
	if err != nil {
		var empty T
		return empty, false, err
	}

	return item, found, nil
}

// Create inserts the record and returns the stored row as returned by the database.
// A nil record is a no-op that returns the zero value.
func (e *Engine[T]) Create(ctx context.Context, item T) (T, error) {
	var created T

	if isNil(item) {
		return created, nil
	}

	err := e.observe(ctx, operationCreate, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		row, err := e.codec.ToRow(item)
		if err != nil {
			return 0, encodeError(err)
		}

		var found bool
		created, found, err = e.insertRow(ctx, db, operationCreate, row)
		if !found {
			return 0, err
		}

		return 1, err
	})
	if err != nil {
		var empty T
		return empty, err
	}

	return created, nil
}

// DeleteByFilter deletes every row matching filter. An empty filter deletes all rows.
func (e *Engine[T]) DeleteByFilter(ctx context.Context, filter persistence.RawSQL) error {
	return e.observe(ctx, operationDeleteByFilter, func(ctx context.Context, db adapters.DBAdapter) (int, error) {
		sqlQuery, args, err := e.buildDeleteQuery(rawWhere(filter), false)
		if err != nil {
			return 0, err
		}

		affected, err := e.exec(ctx, db, operationDeleteByFilter, sqlQuery, args...)

		return int(affected), err
	})
}

// count runs SELECT COUNT(*) with the optional where expression.
func (e *Engine[T]) count(ctx context.Context, db adapters.DBAdapter, operation string, where exp.Expression) (int64, error) {
	ds := dialect.From(e.tableIdentifier()).Prepared(true).
		Select(goqu.COUNT(goqu.Star()).As(aliasCount))

	if where != nil {
		ds = ds.Where(where)
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return 0, errors.Join(persistence.ErrBuildingQueryFailed, err)
	}

	records, err := e.queryRecords(ctx, db, operation, sqlQuery, args...)
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}

	total, err := toInt64(records[0][aliasCount])
	if err != nil {
		return 0, errors.Join(persistence.ErrScanningRowFailed, err)
	}

	return total, nil
}

// insertRow inserts one row and returns the converted RETURNING * row.
func (e *Engine[T]) insertRow(
	ctx context.Context,
	db adapters.DBAdapter,
	operation string,
	row persistence.RecordMap,
) (T, bool, error) {

	var empty T

	sqlQuery, args, err := e.buildInsertQuery(row, false)
	if err != nil {
		return empty, false, err
	}

	return e.queryFirst(ctx, db, operation, sqlQuery, args...)
}

func (e *Engine[T]) buildSelectQuery(query selectQuery) (sqlQueryString, sqlArgs, error) {
	ds := dialect.From(e.tableIdentifier()).Prepared(true)

	if !query.selectExpr.IsEmpty() {
		ds = ds.Select(goqu.L(string(query.selectExpr)))
	}

	if query.where != nil {
		ds = ds.Where(query.where)
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(persistence.ErrBuildingQueryFailed, err)
	}

	// goqu always appends a direction to ORDER BY items, so caller-supplied sort clauses are appended verbatim.
	if !query.sort.IsEmpty() {
		sqlQuery += " ORDER BY " + string(query.sort)
	}

	if query.take > 0 {
		sqlQuery += " LIMIT " + strconv.FormatInt(query.take, 10)
	}

	if query.skip >= 0 {
		sqlQuery += " OFFSET " + strconv.FormatInt(query.skip, 10)
	}

	return sqlQuery, args, nil
}

// buildInsertQuery builds INSERT ... RETURNING *, optionally as an upsert on the id column.
func (e *Engine[T]) buildInsertQuery(row persistence.RecordMap, upsert bool) (sqlQueryString, sqlArgs, error) {
	record, err := toRecord(row)
	if err != nil {
		return "", nil, err
	}

	ds := dialect.Insert(e.tableIdentifier()).Prepared(true).
		Rows(record).
		Returning(goqu.Star())

	if upsert {
		ds = ds.OnConflict(goqu.DoUpdate(colID, excludedRecord(row)))
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(persistence.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// buildUpdateQuery builds UPDATE ... SET <columns> WHERE "id" = <id> RETURNING *.
func (e *Engine[T]) buildUpdateQuery(id any, set goqu.Record) (sqlQueryString, sqlArgs, error) {
	sqlQuery, args, err := dialect.Update(e.tableIdentifier()).Prepared(true).
		Set(set).
		Where(goqu.C(colID).Eq(id)).
		Returning(goqu.Star()).
		ToSQL()
	if err != nil {
		return "", nil, errors.Join(persistence.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// buildDeleteQuery builds DELETE with the optional where expression, optionally with RETURNING *.
func (e *Engine[T]) buildDeleteQuery(where exp.Expression, returning bool) (sqlQueryString, sqlArgs, error) {
	ds := dialect.Delete(e.tableIdentifier()).Prepared(true)

	if where != nil {
		ds = ds.Where(where)
	}

	if returning {
		ds = ds.Returning(goqu.Star())
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(persistence.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// toRecord converts a row into a goqu record, binding composite values as jsonb.
func toRecord(row persistence.RecordMap) (goqu.Record, error) {
	record := make(goqu.Record, len(row))

	for column, value := range row {
		bound, err := bindValue(value)
		if err != nil {
			return nil, errors.Join(persistence.ErrEncodingRecordFailed, err)
		}

		record[column] = bound
	}

	return record, nil
}

// bindValue returns value as a goqu value; composite values become a ?::jsonb literal.
func bindValue(value any) (any, error) {
	if !isJSONValue(value) {
		return value, nil
	}

	jsonText, err := parameterValue(value)
	if err != nil {
		return nil, err
	}

	return goqu.L(castJsonb, jsonText), nil
}

// excludedRecord sets every non-id column to its EXCLUDED value for an upsert.
func excludedRecord(row persistence.RecordMap) goqu.Record {
	record := make(goqu.Record, len(row))

	for column := range row {
		if column == colID {
			continue
		}

		record[column] = goqu.I("excluded." + column)
	}

	if len(record) == 0 {
		record[colID] = goqu.I("excluded." + colID)
	}

	return record
}
