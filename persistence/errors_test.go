package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_IsMatchesByCode(t *testing.T) {
	// arrange
	cause := errors.New("connection refused")
	err := errors.Join(ErrConnectionFailed, cause)

	// assert
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, &Error{Code: ErrConnectionFailed.Code})
}

func Test_Error_Message(t *testing.T) {
	assert.Equal(t, "NO_TABLE: empty table name supplied", ErrEmptyTableName.Error())
}

func Test_KindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
		found    bool
	}{
		{"configuration", fmt.Errorf("connection 0: %w", ErrNoHost), KindConfiguration, true},
		{"connection", errors.Join(ErrConnectionNotOpened, errors.New("closed")), KindConnection, true},
		{"execution", errors.Join(ErrSchemaCreationFailed, errors.Join(ErrExecFailed, errors.New("syntax"))), KindExecution, true},
		{"foreign", errors.New("plain"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, found := KindOf(tt.err)

			assert.Equal(t, tt.expected, kind)
			assert.Equal(t, tt.found, found)
		})
	}
}

func Test_KindPredicates(t *testing.T) {
	assert.True(t, IsConfigurationError(ErrNilCodec))
	assert.False(t, IsConfigurationError(ErrQueryFailed))
	assert.True(t, IsConnectionError(errors.Join(ErrClearFailed, errors.New("boom"))))
	assert.True(t, IsExecutionError(ErrDecodingRecordFailed))
	assert.False(t, IsExecutionError(nil))
}
