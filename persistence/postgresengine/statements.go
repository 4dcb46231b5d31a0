package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
)

// queryRecords executes a query and returns every row as a RecordMap.
func (e *Engine[T]) queryRecords(
	ctx context.Context,
	db adapters.DBAdapter,
	operation string,
	sqlQuery string,
	args ...any,
) ([]persistence.RecordMap, error) {

	start := time.Now()
	rows, queryErr := db.Query(ctx, sqlQuery, args...)
	e.logSQL(ctx, operation, sqlQuery, time.Since(start))

	if queryErr != nil {
		return nil, errors.Join(persistence.ErrQueryFailed, queryErr)
	}
	defer e.closeRows(ctx, rows)

	records := make([]persistence.RecordMap, 0)

	for rows.Next() {
		record, scanErr := rows.Record()
		if scanErr != nil {
			return nil, errors.Join(persistence.ErrScanningRowFailed, scanErr)
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(persistence.ErrQueryFailed, rowsErr)
	}

	return records, nil
}

// queryItems executes a query and converts every row into T.
func (e *Engine[T]) queryItems(
	ctx context.Context,
	db adapters.DBAdapter,
	operation string,
	sqlQuery string,
	args ...any,
) ([]T, error) {

	records, err := e.queryRecords(ctx, db, operation, sqlQuery, args...)
	if err != nil {
		return nil, err
	}

	return e.convertRecords(records)
}

// queryFirst executes a query and returns the first converted row, if any.
func (e *Engine[T]) queryFirst(
	ctx context.Context,
	db adapters.DBAdapter,
	operation string,
	sqlQuery string,
	args ...any,
) (T, bool, error) {

	var empty T

	items, err := e.queryItems(ctx, db, operation, sqlQuery, args...)
	if err != nil || len(items) == 0 {
		return empty, false, err
	}

	return items[0], true, nil
}

// convertRecords maps rows to records through the codec, skipping rows the codec reports as absent.
func (e *Engine[T]) convertRecords(records []persistence.RecordMap) ([]T, error) {
	items := make([]T, 0, len(records))

	for _, record := range records {
		item, err := e.codec.FromRow(record)
		if errors.Is(err, persistence.ErrAbsentRecord) {
			continue
		}

		if err != nil {
			return nil, decodeError(err)
		}

		items = append(items, item)
	}

	return items, nil
}

// exec executes a statement and returns the number of affected rows.
func (e *Engine[T]) exec(
	ctx context.Context,
	db adapters.DBAdapter,
	operation string,
	sqlQuery string,
	args ...any,
) (int64, error) {

	start := time.Now()
	result, execErr := db.Exec(ctx, sqlQuery, args...)
	e.logSQL(ctx, operation, sqlQuery, time.Since(start))

	if execErr != nil {
		return 0, errors.Join(persistence.ErrExecFailed, execErr)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(persistence.ErrExecFailed, err)
	}

	return affected, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine[T]) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// encodeError makes sure a codec failure carries ErrEncodingRecordFailed.
func encodeError(err error) error {
	if errors.Is(err, persistence.ErrEncodingRecordFailed) {
		return err
	}

	return errors.Join(persistence.ErrEncodingRecordFailed, err)
}

// decodeError makes sure a codec failure carries ErrDecodingRecordFailed.
func decodeError(err error) error {
	if errors.Is(err, persistence.ErrDecodingRecordFailed) {
		return err
	}

	return errors.Join(persistence.ErrDecodingRecordFailed, err)
}

// isNil reports whether value is a nil pointer, map, slice, interface, channel or func.
// A non-nil value is never nil, even if all of its fields are zero.
func isNil[V any](value V) bool {
	v := reflect.ValueOf(&value).Elem()

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// toInt64 converts a scalar aggregate result, as returned by any adapter, into an int64.
func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected aggregate value of type %T", value)
	}
}
