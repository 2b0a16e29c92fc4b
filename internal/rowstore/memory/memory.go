// Package memory implements the rowstore adapter backed by an in-process
// go-cache instance. It is the default backend for tests and single-node dev
// setups; it is strongly consistent, so the consistency option is a no-op.
package memory

import (
	"context"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tablebook/tablebook/internal/rowstore"
)

func init() {
	rowstore.RegisterAdapter(&memoryAdapter{})
}

// sep joins table/partition/clustering into one cache key. NUL cannot appear
// in identifiers, so the encoding is collision-free.
const sep = "\x00"

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, opts rowstore.Options) (rowstore.Store, error) {
	return New(), nil
}

// Mem is an in-memory Store.
type Mem struct {
	c *gocache.Cache
}

// New returns an empty in-memory store.
func New() *Mem {
	return &Mem{c: gocache.New(gocache.NoExpiration, 0)}
}

func cacheKey(table string, key rowstore.Key) string {
	return table + sep + key.Partition + sep + key.Clustering
}

func (m *Mem) Get(ctx context.Context, table string, key rowstore.Key) (rowstore.Record, error) {
	v, ok := m.c.Get(cacheKey(table, key))
	if !ok {
		return rowstore.Record{}, rowstore.ErrNoRow
	}
	return rowstore.Record{Key: key, Payload: v.([]byte)}, nil
}

func (m *Mem) Scan(ctx context.Context, table, partition string) ([]rowstore.Record, error) {
	prefix := table + sep
	if partition != "" {
		prefix += partition + sep
	}
	var out []rowstore.Record
	for k, item := range m.c.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		parts := strings.SplitN(k, sep, 3)
		if len(parts) != 3 {
			continue
		}
		out = append(out, rowstore.Record{
			Key:     rowstore.Key{Partition: parts[1], Clustering: parts[2]},
			Payload: item.Object.([]byte),
		})
	}
	return out, nil
}

func (m *Mem) Put(ctx context.Context, table string, rec rowstore.Record) error {
	m.c.Set(cacheKey(table, rec.Key), clone(rec.Payload), gocache.NoExpiration)
	return nil
}

func (m *Mem) PutIfAbsent(ctx context.Context, table string, rec rowstore.Record) (bool, error) {
	err := m.c.Add(cacheKey(table, rec.Key), clone(rec.Payload), gocache.NoExpiration)
	return err == nil, nil
}

func (m *Mem) Delete(ctx context.Context, table string, key rowstore.Key) error {
	m.c.Delete(cacheKey(table, key))
	return nil
}

func (m *Mem) EnsureTable(ctx context.Context, table string) error { return nil }

func (m *Mem) Ping(ctx context.Context) error { return nil }

func (m *Mem) Close() error { return nil }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
