// Package platform defines the connection abstraction that every backend
// adapter implements, and the scheme -> adapter registry used to resolve a
// connection URI to a concrete backend.
//
// Grounded on original_source/agent/platform/registry.py (register_platform,
// get_platform) generalized from Python's import-driven module registration
// into an explicit Go value per spec.md §9's design note.
package platform

import (
	"context"
	"fmt"
	"sort"
)

// Rows is a minimal row iterator every adapter wraps its driver's result set
// in, so the executor and discovery packages never depend on a specific SQL
// driver.
type Rows interface {
	Next() bool
	// Scan copies the current row's columns into dest, one pointer per
	// column.
	Scan(dest ...any) error
	// Columns returns the column names of the result set.
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Conn is the capability set every platform adapter's connection object
// exposes. Implementations are not required to be safe for concurrent use;
// the runner executes probes sequentially against a single Conn (§5).
type Conn interface {
	// Execute runs sql (already validated read-only by internal/executor)
	// with optional positional parameters using the canonical "?"
	// placeholder, translating as needed for the backend's own syntax.
	Execute(ctx context.Context, sql string, args ...any) (Rows, error)
	// QuoteIdent quotes an identifier using the backend's escape rule.
	// The default convention (double-quote, doubled embedded quotes) is
	// provided by QuoteIdentDefault for adapters that don't need anything
	// fancier.
	QuoteIdent(name string) string
	// Close releases the connection. Safe to call multiple times.
	Close() error
}

// QuoteIdentDefault implements the default ANSI identifier quoting rule:
// wrap in double quotes, doubling any embedded double quote.
func QuoteIdentDefault(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"', '"')
			continue
		}
		out = append(out, name[i])
	}
	out = append(out, '"')
	return string(out)
}

// Factory opens a connection for a connection string belonging to the
// scheme it was registered under.
type Factory func(ctx context.Context, connectionString string) (Conn, error)

// adapter is what the registry stores per scheme.
type adapter struct {
	name         string
	factory      Factory
	defaultSuite string
}

// Registry maps connection-URI schemes to adapters. It is built once at
// startup and is read-mostly thereafter: lookups never mutate it and never
// block. Dynamic re-registration is not supported, matching spec.md §5.
type Registry struct {
	adapters map[string]adapter
}

// NewRegistry returns an empty registry. Callers register adapters with
// Register before using Connect/DefaultSuite/AdapterName.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]adapter)}
}

// Register binds scheme (case-insensitive) to an adapter. Intended to be
// called only during process initialization, from cmd/aird's adapter wiring.
func (r *Registry) Register(scheme, name string, factory Factory, defaultSuite string) {
	r.adapters[normalizeScheme(scheme)] = adapter{name: name, factory: factory, defaultSuite: defaultSuite}
}

// Schemes returns the registered schemes, sorted, for UnknownSchemeError's
// list of supported schemes.
func (r *Registry) Schemes() []string {
	out := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SchemeOf extracts the scheme portion of a connection string. Connection
// strings with no "://" are treated as sqlite-style bare paths.
func SchemeOf(connectionString string) string {
	for i := 0; i+2 < len(connectionString); i++ {
		if connectionString[i] == ':' && connectionString[i+1] == '/' && connectionString[i+2] == '/' {
			return normalizeScheme(connectionString[:i])
		}
	}
	return "sqlite"
}

func normalizeScheme(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// UnknownSchemeError is returned by DefaultSuite/Connect when the
// connection string's scheme has no registered adapter.
type UnknownSchemeError struct {
	Scheme    string
	Supported []string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown connection scheme %q; supported schemes: %v", e.Scheme, e.Supported)
}

// DefaultSuite returns the default suite name bound to the connection
// string's scheme, without opening a connection.
func (r *Registry) DefaultSuite(connectionString string) (string, error) {
	scheme := SchemeOf(connectionString)
	a, ok := r.adapters[scheme]
	if !ok {
		return "", &UnknownSchemeError{Scheme: scheme, Supported: r.Schemes()}
	}
	return a.defaultSuite, nil
}

// AdapterName returns the registered adapter name for the connection
// string's scheme (e.g. "postgres", "sqlite"), without opening a
// connection.
func (r *Registry) AdapterName(connectionString string) (string, error) {
	scheme := SchemeOf(connectionString)
	a, ok := r.adapters[scheme]
	if !ok {
		return "", &UnknownSchemeError{Scheme: scheme, Supported: r.Schemes()}
	}
	return a.name, nil
}

// Connect resolves connectionString's scheme to an adapter and opens a
// connection. Callers own the returned Conn and must Close it on every exit
// path.
func (r *Registry) Connect(ctx context.Context, connectionString string) (name string, conn Conn, defaultSuite string, err error) {
	scheme := SchemeOf(connectionString)
	a, ok := r.adapters[scheme]
	if !ok {
		return "", nil, "", &UnknownSchemeError{Scheme: scheme, Supported: r.Schemes()}
	}
	conn, err = a.factory(ctx, connectionString)
	if err != nil {
		return "", nil, "", fmt.Errorf("platform: connecting via %s adapter: %w", a.name, err)
	}
	return a.name, conn, a.defaultSuite, nil
}
