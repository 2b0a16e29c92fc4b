// Package redis implements the rowstore adapter on Redis. Each (table,
// partition) pair is a hash whose fields are clustering keys, so partition
// scans are a single HGETALL and PutIfAbsent maps to HSETNX. Full-table scans
// walk the keyspace with SCAN.
package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tablebook/tablebook/internal/rowstore"
)

func init() {
	rowstore.RegisterAdapter(&redisAdapter{})
}

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return "redis" }

func (a *redisAdapter) Connect(ctx context.Context, opts rowstore.Options) (rowstore.Store, error) {
	if opts.RedisAddr == "" {
		return nil, fmt.Errorf("redis: addr required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	prefix := opts.RedisPrefix
	if prefix == "" {
		prefix = "tablebook"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// Redis is a Store backed by a Redis client.
type Redis struct {
	client *goredis.Client
	prefix string
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *goredis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) hashKey(table, partition string) string {
	return s.prefix + ":" + table + ":" + partition
}

func (s *Redis) Get(ctx context.Context, table string, key rowstore.Key) (rowstore.Record, error) {
	v, err := s.client.HGet(ctx, s.hashKey(table, key.Partition), key.Clustering).Bytes()
	if err == goredis.Nil {
		return rowstore.Record{}, rowstore.ErrNoRow
	}
	if err != nil {
		return rowstore.Record{}, err
	}
	return rowstore.Record{Key: key, Payload: v}, nil
}

func (s *Redis) Scan(ctx context.Context, table, partition string) ([]rowstore.Record, error) {
	if partition != "" {
		return s.scanPartition(ctx, table, partition)
	}

	var out []rowstore.Record
	pattern := s.hashKey(table, "*")
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		part := strings.TrimPrefix(iter.Val(), s.hashKey(table, ""))
		recs, err := s.scanPartition(ctx, table, part)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Redis) scanPartition(ctx context.Context, table, partition string) ([]rowstore.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(table, partition)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]rowstore.Record, 0, len(fields))
	for clustering, payload := range fields {
		out = append(out, rowstore.Record{
			Key:     rowstore.Key{Partition: partition, Clustering: clustering},
			Payload: []byte(payload),
		})
	}
	return out, nil
}

func (s *Redis) Put(ctx context.Context, table string, rec rowstore.Record) error {
	return s.client.HSet(ctx, s.hashKey(table, rec.Key.Partition), rec.Key.Clustering, rec.Payload).Err()
}

func (s *Redis) PutIfAbsent(ctx context.Context, table string, rec rowstore.Record) (bool, error) {
	return s.client.HSetNX(ctx, s.hashKey(table, rec.Key.Partition), rec.Key.Clustering, rec.Payload).Result()
}

func (s *Redis) Delete(ctx context.Context, table string, key rowstore.Key) error {
	return s.client.HDel(ctx, s.hashKey(table, key.Partition), key.Clustering).Err()
}

func (s *Redis) EnsureTable(ctx context.Context, table string) error { return nil }

func (s *Redis) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Redis) Close() error { return s.client.Close() }
