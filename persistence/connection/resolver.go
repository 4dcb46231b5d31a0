package connection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

const (
	partSeparator = ";"
	keyHost       = "host"
	keyPort       = "port"
	keyDatabase   = "database"
	keyUsername   = "username"
	keyPassword   = "password"
)

// Descriptor is one candidate connection endpoint: either a URI, or host/port/database.
//
// DiscoveryKey is carried for callers that resolve endpoints through a discovery
// service; the resolver only consumes already-resolved descriptors.
type Descriptor struct {
	DiscoveryKey string
	URI          string
	Host         string
	Port         int
	Database     string
}

// Validate checks that the descriptor is usable on its own.
func (d Descriptor) Validate() error {
	if d.URI != "" {
		return nil
	}

	if d.Host == "" {
		return persistence.ErrNoHost
	}

	if d.Port == 0 {
		return persistence.ErrNoPort
	}

	if d.Database == "" {
		return persistence.ErrNoDatabase
	}

	return nil
}

// Credential is the optional username/password pair.
// StoreKey is carried for callers that look credentials up in a credential store.
type Credential struct {
	StoreKey string
	Username string
	Password string
}

// Resolver merges candidate descriptors and an optional credential into one connection string.
type Resolver struct {
	Connections []Descriptor
	Credential  *Credential
}

// NewResolver builds a Resolver.
func NewResolver(credential *Credential, connections ...Descriptor) Resolver {
	return Resolver{Connections: connections, Credential: credential}
}

// Validate checks every candidate descriptor.
func (r Resolver) Validate() error {
	if len(r.Connections) == 0 {
		return persistence.ErrNoConnection
	}

	for i, descriptor := range r.Connections {
		if err := descriptor.Validate(); err != nil {
			return fmt.Errorf("connection %d: %w", i, err)
		}
	}

	return nil
}

// Resolve validates the candidates and composes the connection string
// "<connection-part>;<credential-part>". It performs no network I/O.
func (r Resolver) Resolve() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	parts := make([]string, 0, 6)

	if uri := r.firstURI(); uri != "" {
		parts = append(parts, strings.TrimRight(uri, partSeparator))
	} else {
		parts = append(parts, r.composeKeyValues()...)
	}

	if r.Credential != nil {
		if r.Credential.Username != "" {
			parts = append(parts, keyUsername+"="+r.Credential.Username)
		}
		if r.Credential.Password != "" {
			parts = append(parts, keyPassword+"="+r.Credential.Password)
		}
	}

	return strings.Join(parts, partSeparator), nil
}

// DatabaseName returns the database named by the first descriptor that names one.
func (r Resolver) DatabaseName() string {
	for _, descriptor := range r.Connections {
		if descriptor.Database != "" {
			return descriptor.Database
		}

		if descriptor.URI != "" {
			if name := databaseFromURI(descriptor.URI); name != "" {
				return name
			}
		}
	}

	return ""
}

func (r Resolver) firstURI() string {
	for _, descriptor := range r.Connections {
		if descriptor.URI != "" {
			return descriptor.URI
		}
	}

	return ""
}

// composeKeyValues merges host/port/database across descriptors; the first non-empty value of each key wins.
func (r Resolver) composeKeyValues() []string {
	var host, port, database string

	for _, descriptor := range r.Connections {
		if host == "" && descriptor.Host != "" {
			host = descriptor.Host
		}
		if port == "" && descriptor.Port != 0 {
			port = strconv.Itoa(descriptor.Port)
		}
		if database == "" && descriptor.Database != "" {
			database = descriptor.Database
		}
	}

	parts := make([]string, 0, 3)
	if host != "" {
		parts = append(parts, keyHost+"="+host)
	}
	if port != "" {
		parts = append(parts, keyPort+"="+port)
	}
	if database != "" {
		parts = append(parts, keyDatabase+"="+database)
	}

	return parts
}

func databaseFromURI(uri string) string {
	parsed, err := url.Parse(strings.TrimRight(uri, partSeparator))
	if err != nil || parsed.Scheme == "" {
		return ""
	}

	return strings.TrimPrefix(parsed.Path, "/")
}
