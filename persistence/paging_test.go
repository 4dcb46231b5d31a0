package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PagingParams_EffectiveTake(t *testing.T) {
	tests := []struct {
		name     string
		take     int64
		expected int64
	}{
		{"zero defaults to max", 0, 100},
		{"negative defaults to max", -5, 100},
		{"within bounds", 20, 20},
		{"at max", 100, 100},
		{"clamped to max", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPagingParams(0, tt.take, false).EffectiveTake(100))
		})
	}
}

func Test_PagingParams_HasSkip(t *testing.T) {
	assert.True(t, NewPagingParams(0, 10, false).HasSkip())
	assert.False(t, NewPagingParams(NoSkip, 10, false).HasSkip())
}

func Test_Page_HasTotal(t *testing.T) {
	total := int64(3)

	assert.False(t, Page[string]{}.HasTotal())
	assert.True(t, Page[string]{Total: &total}.HasTotal())
}

func Test_RawSQL_IsEmpty(t *testing.T) {
	assert.True(t, RawSQL("").IsEmpty())
	assert.False(t, RawSQL(`"key" = 'Key 1'`).IsEmpty())
}
