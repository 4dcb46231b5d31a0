package postgresengine

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

// QuoteIdentifier wraps an identifier in double quotes, doubling embedded quotes.
// Empty input and already quoted identifiers are returned unchanged.
func QuoteIdentifier(value string) string {
	if value == "" || strings.HasPrefix(value, `"`) {
		return value
	}

	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// QuotedTableName returns the quoted, optionally schema-qualified table name.
func QuotedTableName(schemaName, table string) string {
	if table == "" {
		return ""
	}

	if schemaName == "" {
		return QuoteIdentifier(table)
	}

	return QuoteIdentifier(schemaName) + "." + QuoteIdentifier(table)
}

// GenerateColumns returns a comma-separated column list.
// Entries starting with "(" are expressions and pass through unquoted.
func GenerateColumns(columns []string) string {
	quoted := make([]string, 0, len(columns))
	for _, column := range columns {
		if strings.HasPrefix(column, "(") {
			quoted = append(quoted, column)
			continue
		}
		quoted = append(quoted, QuoteIdentifier(column))
	}

	return strings.Join(quoted, ",")
}

// GenerateParameters returns count positional parameters: "$1,$2,...".
func GenerateParameters(count int) string {
	return generateParametersFrom(1, count)
}

func generateParametersFrom(first, count int) string {
	params := make([]string, 0, count)
	for i := 0; i < count; i++ {
		params = append(params, "$"+strconv.Itoa(first+i))
	}

	return strings.Join(params, ",")
}

// GenerateSetParameters returns `"a"=$1,"b"=$2,...` for the given columns.
func GenerateSetParameters(columns []string) string {
	assignments := make([]string, 0, len(columns))
	for i, column := range columns {
		assignments = append(assignments, QuoteIdentifier(column)+"=$"+strconv.Itoa(i+1))
	}

	return strings.Join(assignments, ",")
}

// GenerateValues returns the row's values in RecordMap.Keys order, ready to be bound positionally.
// Maps, slices and structs are encoded as JSON text.
func GenerateValues(row persistence.RecordMap) ([]any, error) {
	values := make([]any, 0, len(row))
	for _, key := range row.Keys() {
		value, err := parameterValue(row[key])
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

// parameterValue converts a record value into a driver parameter.
// Composite values become JSON text; scalars are passed through.
func parameterValue(value any) (any, error) {
	if !isJSONValue(value) {
		return value, nil
	}

	data, err := persistence.JSON.Marshal(value)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

// isJSONValue reports whether value is bound as a jsonb parameter.
func isJSONValue(value any) bool {
	switch value.(type) {
	case nil, []byte, time.Time, *time.Time, driver.Valuer:
		return false
	}

	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}
