package adapters

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	typeJSON        = "JSON"
	typeJSONB       = "JSONB"
	typeBytea       = "BYTEA"
	typeNumeric     = "NUMERIC"
	typeTimestampTZ = "TIMESTAMPTZ"
	typeTimestamp   = "TIMESTAMP"
	typeDate        = "DATE"
)

var rowJSON = jsoniter.Config{UseNumber: true}.Froze()

// describeColumns returns the column names and upper-cased database type names of a result set.
func describeColumns(rows *sql.Rows) ([]string, []string, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	columns := make([]string, len(columnTypes))
	types := make([]string, len(columnTypes))
	for i, columnType := range columnTypes {
		columns[i] = columnType.Name()
		types[i] = strings.ToUpper(columnType.DatabaseTypeName())
	}

	return columns, types, nil
}

// putNormalized stores value under column unless it is NULL.
// database/sql drivers hand back text-like columns as []byte, so conversion is driven by the column type.
func putNormalized(record map[string]any, column string, value any, dbType string) error {
	if value == nil {
		return nil
	}

	normalized, err := normalizeSQLValue(value, dbType)
	if err != nil {
		return err
	}

	if normalized != nil {
		record[column] = normalized
	}

	return nil
}

func normalizeSQLValue(value any, dbType string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil

	case []byte:
		return normalizeBytes(v, dbType)

	case string:
		return normalizeBytes([]byte(v), dbType)

	default:
		return v, nil
	}
}

func normalizeBytes(raw []byte, dbType string) (any, error) {
	switch dbType {
	case typeJSON, typeJSONB:
		return decodeJSON(raw)

	case typeBytea:
		copied := make([]byte, len(raw))
		copy(copied, raw)
		return copied, nil

	case typeNumeric:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return string(raw), nil
		}
		return f, nil

	case typeTimestampTZ, typeTimestamp, typeDate:
		t, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return string(raw), nil
		}
		return t.UTC(), nil

	default:
		return string(raw), nil
	}
}

// decodeJSON decodes a json/jsonb column. Integral numbers become int64 so that
// identities and counters above 2^53 survive; everything else numeric becomes float64.
func decodeJSON(raw []byte) (any, error) {
	var decoded any
	if err := rowJSON.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	return normalizeJSONNumbers(decoded), nil
}

func normalizeJSONNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, nested := range v {
			v[key] = normalizeJSONNumbers(nested)
		}
		return v

	case []any:
		for i, nested := range v {
			v[i] = normalizeJSONNumbers(nested)
		}
		return v

	default:
		number, ok := jsoniter.CastJsonNumber(v)
		if !ok {
			return v
		}

		if i, err := strconv.ParseInt(number, 10, 64); err == nil {
			return i
		}

		if f, err := strconv.ParseFloat(number, 64); err == nil {
			return f
		}

		return number
	}
}
