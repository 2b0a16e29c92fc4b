package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/tablebook/internal/rowstore"
	"github.com/tablebook/tablebook/internal/rowstore/memory"
)

func TestAdapterRegistered(t *testing.T) {
	a, ok := rowstore.GetAdapter("memory")
	require.True(t, ok)
	assert.Equal(t, "memory", a.Name())

	store, err := rowstore.Open(context.Background(), "memory", rowstore.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
}

func TestGetAbsent(t *testing.T) {
	m := memory.New()
	_, err := m.Get(context.Background(), "t", rowstore.Key{Partition: "p", Clustering: "c"})
	assert.ErrorIs(t, err, rowstore.ErrNoRow)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	key := rowstore.Key{Partition: "acme", Clustering: "r1"}

	require.NoError(t, m.Put(ctx, "restaurants", rowstore.Record{Key: key, Payload: []byte(`{"a":1}`)}))

	rec, err := m.Get(ctx, "restaurants", key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), rec.Payload)

	require.NoError(t, m.Delete(ctx, "restaurants", key))
	_, err = m.Get(ctx, "restaurants", key)
	assert.ErrorIs(t, err, rowstore.ErrNoRow)
}

func TestPutIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	key := rowstore.Key{Partition: "acme", Clustering: "r1"}

	written, err := m.PutIfAbsent(ctx, "restaurants", rowstore.Record{Key: key, Payload: []byte("v1")})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = m.PutIfAbsent(ctx, "restaurants", rowstore.Record{Key: key, Payload: []byte("v2")})
	require.NoError(t, err)
	assert.False(t, written)

	rec, err := m.Get(ctx, "restaurants", key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), rec.Payload, "losing write must not overwrite")
}

func TestScanPartitionAndFull(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	put := func(table, part, clust string) {
		require.NoError(t, m.Put(ctx, table, rowstore.Record{
			Key:     rowstore.Key{Partition: part, Clustering: clust},
			Payload: []byte(part + "/" + clust),
		}))
	}
	put("restaurants", "acme", "r1")
	put("restaurants", "acme", "r2")
	put("restaurants", "beta", "r3")
	put("tenants", "acme", "")

	acme, err := m.Scan(ctx, "restaurants", "acme")
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	all, err := m.Scan(ctx, "restaurants", "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "full scan does not leak other tables")

	other, err := m.Scan(ctx, "tenants", "")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestPayloadIsolation(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	key := rowstore.Key{Partition: "p"}

	payload := []byte("original")
	require.NoError(t, m.Put(ctx, "t", rowstore.Record{Key: key, Payload: payload}))
	payload[0] = 'X'

	rec, err := m.Get(ctx, "t", key)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), rec.Payload)
}
