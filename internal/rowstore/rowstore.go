// Package rowstore defines the partitioned row store boundary the repository
// layer is built on: point lookups by (partition key, clustering key), scans
// optionally restricted to one partition, unconditional and conditional
// upserts, and idempotent table bootstrap. Backends live in sub-packages and
// register themselves as adapters.
package rowstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRow is returned by Get when no record exists under the key.
var ErrNoRow = errors.New("rowstore: no row")

// Consistency is the read consistency requested from the backend. Backends
// that are strongly consistent by construction treat it as a no-op.
type Consistency string

const (
	// ConsistencyOne accepts a possibly stale read.
	ConsistencyOne Consistency = "one"
	// ConsistencyQuorum requires a majority-acknowledged read.
	ConsistencyQuorum Consistency = "quorum"
)

// Key addresses a record: a partition key plus an optional clustering key.
// Tables whose records are keyed by partition alone leave Clustering empty.
type Key struct {
	Partition  string
	Clustering string
}

func (k Key) String() string {
	if k.Clustering == "" {
		return k.Partition
	}
	return k.Partition + "/" + k.Clustering
}

// Record is a stored row: its key and an opaque payload (JSON-encoded by the
// caller; the store never inspects it).
type Record struct {
	Key     Key
	Payload []byte
}

// Store is a connection to one row store backend. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the record under key, or ErrNoRow.
	Get(ctx context.Context, table string, key Key) (Record, error)

	// Scan returns all records of table. A non-empty partition restricts the
	// scan to that partition. Iteration order is backend-defined.
	Scan(ctx context.Context, table, partition string) ([]Record, error)

	// Put writes the record, replacing any existing record under its key.
	Put(ctx context.Context, table string, rec Record) error

	// PutIfAbsent writes the record only if no record exists under its key.
	// It reports whether the write happened. This is the conditional-write
	// primitive conflict detection prefers over check-then-act.
	PutIfAbsent(ctx context.Context, table string, rec Record) (bool, error)

	// Delete removes the record under key. Deleting an absent key is not an
	// error; existence semantics belong to the repository layer.
	Delete(ctx context.Context, table string, key Key) error

	// EnsureTable idempotently creates the named table.
	EnsureTable(ctx context.Context, table string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Options carries everything an adapter may need to connect. Each adapter
// reads only its own fields.
type Options struct {
	// DSN for SQL backends.
	DSN string

	// Redis connection settings.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Requested read consistency.
	Consistency Consistency
}

// Adapter connects to one backend kind.
type Adapter interface {
	Name() string
	Connect(ctx context.Context, opts Options) (Store, error)
}

var adapters = map[string]Adapter{}

// RegisterAdapter makes an adapter available to Open. Called from adapter
// package init functions.
func RegisterAdapter(a Adapter) {
	adapters[a.Name()] = a
}

// GetAdapter returns a registered adapter by name.
func GetAdapter(name string) (Adapter, bool) {
	a, ok := adapters[name]
	return a, ok
}

// Open connects to the backend registered under driver.
func Open(ctx context.Context, driver string, opts Options) (Store, error) {
	a, ok := adapters[driver]
	if !ok {
		return nil, fmt.Errorf("rowstore: unknown driver %q", driver)
	}
	return a.Connect(ctx, opts)
}
