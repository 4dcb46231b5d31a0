package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/postgresengine"
)

const yamlConfig = `
table: notes
schema: app
connections:
  - host: db-1.local
    port: 5432
    database: notes
  - host: db-2.local
    port: 5433
    database: notes
credential:
  username: app
  password: secret
options:
  max_pool_size: 8
  connect_timeout: 1500
  max_page_size: 50
  debug: true
`

type configNote struct {
	ID string `json:"id"`
}

func Test_Load_Defaults(t *testing.T) {
	// arrange
	v := New()
	v.Set("table", "notes")
	v.Set("connection.host", "localhost")
	v.Set("connection.port", 5432)
	v.Set("connection.database", "notes")

	// act
	settings, err := Load(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "notes", settings.Table)
	assert.Empty(t, settings.Schema)
	assert.Nil(t, settings.Credential)
	assert.Equal(t, []connection.Descriptor{{Host: "localhost", Port: 5432, Database: "notes"}}, settings.Connections)
	assert.Equal(t, connection.DefaultOptions(), settings.Options)
}

func Test_Load_FromYAML(t *testing.T) {
	// arrange
	v := New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlConfig)), "error in arranging test data")

	// act
	settings, err := Load(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "app", settings.Schema)
	require.Len(t, settings.Connections, 2)
	assert.Equal(t, connection.Descriptor{Host: "db-2.local", Port: 5433, Database: "notes"}, settings.Connections[1])
	require.NotNil(t, settings.Credential)
	assert.Equal(t, "app", settings.Credential.Username)
	assert.Equal(t, 8, settings.Options.MaxPoolSize)
	assert.Equal(t, 1500*time.Millisecond, settings.Options.ConnectTimeout)
	assert.Equal(t, 50, settings.Options.MaxPageSize)
	assert.True(t, settings.Options.Debug)
	assert.True(t, settings.Options.KeepAlive)
}

func Test_Load_LegacyCollectionKey(t *testing.T) {
	// arrange
	v := New()
	v.Set("collection", "legacy_notes")
	v.Set("connection.uri", "postgres://localhost:5432/notes")

	// act
	settings, err := Load(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "legacy_notes", settings.Table)
	assert.Equal(t, "postgres://localhost:5432/notes", settings.Connections[0].URI)
}

func Test_Load_EnvironmentOverrides(t *testing.T) {
	// arrange
	t.Setenv("PERSISTENCE_CONNECTION_HOST", "env-host")
	t.Setenv("PERSISTENCE_OPTIONS_CONNECT_TIMEOUT", "2s")

	v := New()
	v.Set("table", "notes")
	v.Set("connection.port", 5432)
	v.Set("connection.database", "notes")

	// act
	settings, err := Load(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "env-host", settings.Connections[0].Host)
	assert.Equal(t, 2*time.Second, settings.Options.ConnectTimeout)
}

func Test_Load_Errors(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		_, err := Load(New())

		assert.ErrorIs(t, err, persistence.ErrEmptyTableName)
	})

	t.Run("invalid connect timeout", func(t *testing.T) {
		v := New()
		v.Set("table", "notes")
		v.Set("options.connect_timeout", "soon")

		_, err := Load(v)

		assert.ErrorIs(t, err, persistence.ErrInvalidConfiguration)
		assert.True(t, persistence.IsConfigurationError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.ErrorIs(t, err, persistence.ErrInvalidConfiguration)
	})
}

func Test_LoadFile(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persistence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600), "error in arranging test data")

	// act
	settings, err := LoadFile(path)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "notes", settings.Table)
	assert.Len(t, settings.Connections, 2)
}

func Test_Settings_ResolverAndEngineOptions(t *testing.T) {
	// arrange
	v := New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlConfig)), "error in arranging test data")
	settings, err := Load(v)
	require.NoError(t, err, "error in arranging test data")

	// act
	connectionString, resolveErr := settings.Resolver().Resolve()
	engine, engineErr := postgresengine.NewEngine[*configNote](
		settings.Table,
		persistence.JSONCodec[*configNote]{},
		settings.EngineOptions()...,
	)

	// assert
	require.NoError(t, resolveErr)
	assert.Contains(t, connectionString, "host=db-1.local")
	assert.Contains(t, connectionString, "username=app")

	require.NoError(t, engineErr)
	assert.Equal(t, `"app"."notes"`, engine.TableName())
	assert.Equal(t, int64(50), engine.MaxPageSize())
	assert.False(t, engine.IsOpen())
}
