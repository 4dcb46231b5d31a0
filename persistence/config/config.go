package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/postgresengine"
)

const (
	envPrefix = "PERSISTENCE"

	cfgKeyTable       = "table"
	cfgKeyCollection  = "collection"
	cfgKeySchema      = "schema"
	cfgKeyConnections = "connections"

	cfgKeyDiscoveryKey = "connection.discovery_key"
	cfgKeyHost         = "connection.host"
	cfgKeyPort         = "connection.port"
	cfgKeyURI          = "connection.uri"
	cfgKeyDatabase     = "connection.database"

	cfgKeyStoreKey = "credential.store_key"
	cfgKeyUsername = "credential.username"
	cfgKeyPassword = "credential.password"

	cfgKeyMaxPoolSize    = "options.max_pool_size"
	cfgKeyKeepAlive      = "options.keep_alive"
	cfgKeyConnectTimeout = "options.connect_timeout"
	cfgKeyAutoReconnect  = "options.auto_reconnect"
	cfgKeyMaxPageSize    = "options.max_page_size"
	cfgKeyDebug          = "options.debug"
)

// Settings is the resolved configuration of one engine.
type Settings struct {
	Table       string
	Schema      string
	Connections []connection.Descriptor
	Credential  *connection.Credential
	Options     connection.Options
}

// descriptorSettings mirrors connection.Descriptor field by field so that one converts into the other.
type descriptorSettings struct {
	DiscoveryKey string `mapstructure:"discovery_key"`
	URI          string `mapstructure:"uri"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
}

// New returns a viper instance with every default set and PERSISTENCE_* environment overrides enabled,
// e.g. PERSISTENCE_CONNECTION_HOST or PERSISTENCE_OPTIONS_DEBUG.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(cfgKeyMaxPoolSize, connection.DefaultMaxPoolSize)
	v.SetDefault(cfgKeyKeepAlive, connection.DefaultKeepAlive)
	v.SetDefault(cfgKeyConnectTimeout, connection.DefaultConnectTimeout.String())
	v.SetDefault(cfgKeyAutoReconnect, connection.DefaultAutoReconnect)
	v.SetDefault(cfgKeyMaxPageSize, connection.DefaultMaxPageSize)
	v.SetDefault(cfgKeyDebug, connection.DefaultDebug)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadFile reads the config file at path (yaml, json or toml, by extension) and loads Settings from it.
func LoadFile(path string) (Settings, error) {
	v := New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Settings{}, errors.Join(persistence.ErrInvalidConfiguration, err)
	}

	return Load(v)
}

// Load builds Settings from v. The table name is read from "table", falling back to the legacy "collection".
// Connection descriptors come from the "connections" list if present, otherwise from the single "connection" section.
func Load(v *viper.Viper) (Settings, error) {
	table := v.GetString(cfgKeyTable)
	if table == "" {
		table = v.GetString(cfgKeyCollection)
	}

	if table == "" {
		return Settings{}, persistence.ErrEmptyTableName
	}

	connections, err := loadConnections(v)
	if err != nil {
		return Settings{}, err
	}

	connectTimeout, err := durationSetting(v, cfgKeyConnectTimeout)
	if err != nil {
		return Settings{}, errors.Join(persistence.ErrInvalidConfiguration, err)
	}

	return Settings{
		Table:       table,
		Schema:      v.GetString(cfgKeySchema),
		Connections: connections,
		Credential:  loadCredential(v),
		Options: connection.Options{
			MaxPoolSize:    v.GetInt(cfgKeyMaxPoolSize),
			KeepAlive:      v.GetBool(cfgKeyKeepAlive),
			ConnectTimeout: connectTimeout,
			AutoReconnect:  v.GetBool(cfgKeyAutoReconnect),
			MaxPageSize:    v.GetInt(cfgKeyMaxPageSize),
			Debug:          v.GetBool(cfgKeyDebug),
		},
	}, nil
}

func loadConnections(v *viper.Viper) ([]connection.Descriptor, error) {
	if v.IsSet(cfgKeyConnections) {
		var list []descriptorSettings
		if err := v.UnmarshalKey(cfgKeyConnections, &list); err != nil {
			return nil, errors.Join(persistence.ErrInvalidConfiguration, err)
		}

		descriptors := make([]connection.Descriptor, 0, len(list))
		for _, item := range list {
			descriptors = append(descriptors, connection.Descriptor(item))
		}

		return descriptors, nil
	}

	descriptor := connection.Descriptor{
		DiscoveryKey: v.GetString(cfgKeyDiscoveryKey),
		Host:         v.GetString(cfgKeyHost),
		Port:         v.GetInt(cfgKeyPort),
		URI:          v.GetString(cfgKeyURI),
		Database:     v.GetString(cfgKeyDatabase),
	}

	if descriptor == (connection.Descriptor{}) {
		return nil, nil
	}

	return []connection.Descriptor{descriptor}, nil
}

func loadCredential(v *viper.Viper) *connection.Credential {
	credential := connection.Credential{
		StoreKey: v.GetString(cfgKeyStoreKey),
		Username: v.GetString(cfgKeyUsername),
		Password: v.GetString(cfgKeyPassword),
	}

	if credential == (connection.Credential{}) {
		return nil
	}

	return &credential
}

// durationSetting reads a duration given either as a Go duration string ("5s") or as plain milliseconds.
func durationSetting(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(millis) * time.Millisecond, nil
	}

	return time.ParseDuration(raw)
}

// Resolver returns the connection resolver for the configured descriptors and credential.
func (s Settings) Resolver() connection.Resolver {
	return connection.NewResolver(s.Credential, s.Connections...)
}

// EngineOptions returns the engine options for an owned connection configured by s.
func (s Settings) EngineOptions() []postgresengine.Option {
	return []postgresengine.Option{
		postgresengine.WithSchemaName(s.Schema),
		postgresengine.WithConnectionConfig(s.Resolver(), s.Options),
		postgresengine.WithMaxPageSize(int64(s.Options.MaxPageSize)),
		postgresengine.WithDebug(s.Options.Debug),
	}
}
