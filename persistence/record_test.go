package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNote struct {
	ID      string         `json:"id"`
	Key     string         `json:"key"`
	Count   int64          `json:"count"`
	Score   float64        `json:"score"`
	Tags    []string       `json:"tags,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
	Created time.Time      `json:"created"`
}

func Test_RecordMap_KeysAreSorted(t *testing.T) {
	// arrange
	row := RecordMap{"key": 1, "content": 2, "id": 3}

	// act
	keys := row.Keys()

	// assert
	assert.Equal(t, []string{"content", "id", "key"}, keys)
}

func Test_RecordMap_WithoutDoesNotModifyTheOriginal(t *testing.T) {
	// arrange
	row := RecordMap{"id": "n-1", "key": "Key 1"}

	// act
	without := row.Without("id", "unknown")

	// assert
	assert.Equal(t, RecordMap{"key": "Key 1"}, without)
	assert.Equal(t, RecordMap{"id": "n-1", "key": "Key 1"}, row)
	assert.Nil(t, RecordMap(nil).Clone())
}

func Test_JSONCodec_ToRow(t *testing.T) {
	// arrange
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	note := &testNote{
		ID:      "n-1",
		Key:     "Key 1",
		Count:   3,
		Score:   1.5,
		Tags:    []string{"a"},
		Extra:   map[string]any{"nested": 2},
		Created: created,
	}

	// act
	row, err := JSONCodec[*testNote]{}.ToRow(note)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "n-1", row["id"])
	assert.Equal(t, int64(3), row["count"], "integral numbers become int64")
	assert.Equal(t, 1.5, row["score"], "fractional numbers become float64")
	assert.Equal(t, []any{"a"}, row["tags"])
	assert.Equal(t, map[string]any{"nested": int64(2)}, row["extra"])
	assert.Equal(t, "2024-03-01T12:00:00Z", row["created"])
}

func Test_JSONCodec_ToRowOfNilIsNil(t *testing.T) {
	// act
	row, err := JSONCodec[*testNote]{}.ToRow(nil)

	// assert
	require.NoError(t, err)
	assert.Nil(t, row)
}

func Test_JSONCodec_FromRow(t *testing.T) {
	// arrange
	row := RecordMap{
		"id":      "n-1",
		"key":     "Key 1",
		"count":   int64(3),
		"score":   float64(2),
		"tags":    []any{"a", "b"},
		"created": time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	// act
	note, err := JSONCodec[*testNote]{}.FromRow(row)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "n-1", note.ID)
	assert.Equal(t, int64(3), note.Count)
	assert.Equal(t, 2.0, note.Score)
	assert.Equal(t, []string{"a", "b"}, note.Tags)
	assert.True(t, note.Created.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func Test_JSONCodec_FromRowWithMismatchedTypes(t *testing.T) {
	// act
	_, err := JSONCodec[*testNote]{}.FromRow(RecordMap{"count": "not a number"})

	// assert
	assert.ErrorIs(t, err, ErrDecodingRecordFailed)
}

func Test_CodecFuncs(t *testing.T) {
	// arrange
	codec := CodecFuncs[string]{
		To:   func(item string) (RecordMap, error) { return RecordMap{"value": item}, nil },
		From: func(row RecordMap) (string, error) { return row["value"].(string), nil },
	}

	// act
	row, toErr := codec.ToRow("x")
	item, fromErr := codec.FromRow(row)

	// assert
	require.NoError(t, toErr)
	require.NoError(t, fromErr)
	assert.Equal(t, "x", item)
}

func Test_NewUUID(t *testing.T) {
	first := NewUUID()
	second := NewTimeOrderedUUID()

	assert.Len(t, first, 36)
	assert.Len(t, second, 36)
	assert.NotEqual(t, first, second)
}
