package persistence

import (
	"errors"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// RecordMap is the generic row representation: column name -> value.
//
// Keys map 1:1 to column names (case-sensitive). Values are scalars, nested
// maps/slices (JSON columns) or nil. A column that is NULL in the database is
// absent from the map.
type RecordMap map[string]any

// Keys returns the column names in the deterministic order used for SQL generation.
func (m RecordMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Clone returns a shallow copy.
func (m RecordMap) Clone() RecordMap {
	if m == nil {
		return nil
	}

	clone := make(RecordMap, len(m))
	for key, value := range m {
		clone[key] = value
	}

	return clone
}

// Without returns a shallow copy without the given columns.
func (m RecordMap) Without(columns ...string) RecordMap {
	clone := m.Clone()
	for _, column := range columns {
		delete(clone, column)
	}

	return clone
}

// Codec converts between a typed record and its RecordMap row.
// FromRow returns ErrAbsentRecord for a row that does not hold a record.
type Codec[T any] interface {
	ToRow(item T) (RecordMap, error)
	FromRow(row RecordMap) (T, error)
}

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs[T any] struct {
	To   func(item T) (RecordMap, error)
	From func(row RecordMap) (T, error)
}

// ToRow implements Codec.
func (c CodecFuncs[T]) ToRow(item T) (RecordMap, error) {
	return c.To(item)
}

// FromRow implements Codec.
func (c CodecFuncs[T]) FromRow(row RecordMap) (T, error) {
	return c.From(row)
}

// JSON is the json-iterator configuration used for all record and parameter encoding.
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// JSONCodec maps a record to columns through its JSON representation:
// every top-level JSON field becomes one column, named after its json tag.
type JSONCodec[T any] struct{}

// ToRow implements Codec.
func (JSONCodec[T]) ToRow(item T) (RecordMap, error) {
	data, err := JSON.Marshal(item)
	if err != nil {
		return nil, errors.Join(ErrEncodingRecordFailed, err)
	}

	var row RecordMap
	if err = JSON.Unmarshal(data, &row); err != nil {
		return nil, errors.Join(ErrEncodingRecordFailed, err)
	}

	if row == nil {
		return nil, nil
	}

	return NormalizeNumbers(row).(RecordMap), nil
}

// FromRow implements Codec.
func (JSONCodec[T]) FromRow(row RecordMap) (T, error) {
	return DecodeInto[T](row)
}

// DecodeInto rehydrates a new T from a generic value (typically a RecordMap or a decoded JSON document).
func DecodeInto[T any](value any) (T, error) {
	var item T

	data, err := JSON.Marshal(value)
	if err != nil {
		return item, errors.Join(ErrDecodingRecordFailed, err)
	}

	if err = JSON.Unmarshal(data, &item); err != nil {
		return item, errors.Join(ErrDecodingRecordFailed, err)
	}

	return item, nil
}

// NormalizeNumbers replaces json.Number values, recursively, with int64 where
// the number is integral and float64 otherwise.
func NormalizeNumbers(value any) any {
	switch v := value.(type) {
	case RecordMap:
		for key, nested := range v {
			v[key] = NormalizeNumbers(nested)
		}
		return v

	case map[string]any:
		for key, nested := range v {
			v[key] = NormalizeNumbers(nested)
		}
		return v

	case []any:
		for i, nested := range v {
			v[i] = NormalizeNumbers(nested)
		}
		return v

	default:
		if number, ok := jsoniter.CastJsonNumber(v); ok {
			return numberValue(number)
		}
		return v
	}
}

func numberValue(number string) any {
	if i, err := strconv.ParseInt(number, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(number, 64); err == nil {
		return f
	}

	return number
}
