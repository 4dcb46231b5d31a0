package connection

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

// pgxKeywords maps the composed keys to libpq keywords.
var pgxKeywords = map[string]string{
	keyHost:     "host",
	keyPort:     "port",
	keyDatabase: "dbname",
	keyUsername: "user",
	keyPassword: "password",
}

type keywordValue struct {
	keyword string
	value   string
}

// ParsePoolConfig converts a composed connection string into a pgxpool configuration tuned by options.
//
// Every ";"-separated part is either a postgres:// URI, a libpq keyword/value string, or a single
// key=value pair (host, port, database, username, password or any other libpq keyword).
// Key=value pairs override what the URI or keyword/value string specifies.
func ParsePoolConfig(connectionString string, options Options) (*pgxpool.Config, error) {
	base := ""
	overrides := make([]keywordValue, 0, 6)

	for _, part := range strings.Split(connectionString, partSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if base == "" && len(overrides) == 0 && isBaseConnectionString(part) {
			base = part
			continue
		}

		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, errors.Join(persistence.ErrInvalidConnectionString, errors.New("expected key=value, got "+key))
		}

		key = strings.TrimSpace(key)
		if keyword, known := pgxKeywords[strings.ToLower(key)]; known {
			key = keyword
		}

		overrides = append(overrides, keywordValue{keyword: key, value: strings.TrimSpace(value)})
	}

	merged, err := mergeConnectionString(base, overrides)
	if err != nil {
		return nil, errors.Join(persistence.ErrInvalidConnectionString, err)
	}

	config, err := pgxpool.ParseConfig(merged)
	if err != nil {
		return nil, errors.Join(persistence.ErrInvalidConnectionString, err)
	}

	applyOptions(config, options.withDefaults())

	return config, nil
}

func isBaseConnectionString(part string) bool {
	return strings.Contains(part, "://") || strings.Contains(part, " ")
}

// mergeConnectionString applies overrides as URI query parameters or as trailing keyword/value pairs;
// pgx lets both override earlier settings.
func mergeConnectionString(base string, overrides []keywordValue) (string, error) {
	if strings.Contains(base, "://") {
		parsed, err := url.Parse(base)
		if err != nil {
			return "", err
		}

		query := parsed.Query()
		for _, override := range overrides {
			query.Set(override.keyword, override.value)
		}
		parsed.RawQuery = query.Encode()

		return parsed.String(), nil
	}

	pairs := make([]string, 0, len(overrides)+1)
	if base != "" {
		pairs = append(pairs, base)
	}

	for _, override := range overrides {
		pairs = append(pairs, override.keyword+"="+quoteKeywordValue(override.value))
	}

	return strings.Join(pairs, " "), nil
}

func applyOptions(config *pgxpool.Config, options Options) {
	config.MaxConns = int32(options.MaxPoolSize)
	config.ConnConfig.ConnectTimeout = options.ConnectTimeout

	keepAlive := keepAlivePeriod
	if !options.KeepAlive {
		keepAlive = -1
	}

	dialer := &net.Dialer{Timeout: options.ConnectTimeout, KeepAlive: keepAlive}
	config.ConnConfig.DialFunc = dialer.DialContext

	if options.AutoReconnect {
		config.HealthCheckPeriod = healthCheckPeriod
	} else {
		config.HealthCheckPeriod = noHealthCheckPeriod
	}
}

// quoteKeywordValue quotes a libpq keyword value when it is empty or contains spaces, quotes or backslashes.
func quoteKeywordValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}

	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)

	return "'" + escaped + "'"
}
