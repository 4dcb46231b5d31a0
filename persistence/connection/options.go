package connection

import "time"

// Defaults for Options.
const (
	DefaultMaxPoolSize    = 2
	DefaultKeepAlive      = true
	DefaultConnectTimeout = 5 * time.Second
	DefaultAutoReconnect  = true
	DefaultMaxPageSize    = 100
	DefaultDebug          = false
)

const (
	keepAlivePeriod   = 5 * time.Minute
	healthCheckPeriod = time.Minute
	// pgxpool has no switch for background reconnects; an effectively infinite period disables them.
	noHealthCheckPeriod = 24 * time.Hour * 365
)

// Options holds the pool and engine tuning options.
type Options struct {
	MaxPoolSize    int
	KeepAlive      bool
	ConnectTimeout time.Duration
	AutoReconnect  bool
	MaxPageSize    int
	Debug          bool
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return Options{
		MaxPoolSize:    DefaultMaxPoolSize,
		KeepAlive:      DefaultKeepAlive,
		ConnectTimeout: DefaultConnectTimeout,
		AutoReconnect:  DefaultAutoReconnect,
		MaxPageSize:    DefaultMaxPageSize,
		Debug:          DefaultDebug,
	}
}

// withDefaults replaces non-positive numeric options with their defaults.
func (o Options) withDefaults() Options {
	if o.MaxPoolSize <= 0 {
		o.MaxPoolSize = DefaultMaxPoolSize
	}

	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}

	if o.MaxPageSize <= 0 {
		o.MaxPageSize = DefaultMaxPageSize
	}

	return o
}
