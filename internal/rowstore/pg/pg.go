// Package pg implements the rowstore adapter on PostgreSQL using pgxpool.
// Every table is a generic (partition_key, clustering_key, payload) relation
// with a composite primary key; PutIfAbsent maps to INSERT ... ON CONFLICT DO
// NOTHING, which gives the repository layer a true conditional write instead
// of check-then-act. PostgreSQL is strongly consistent, so the consistency
// option is accepted and ignored.
package pg

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/tablebook/internal/rowstore"
)

func init() {
	rowstore.RegisterAdapter(&postgresAdapter{})
}

// Table names come from repository configuration, never from request input,
// but they are still interpolated into DDL/DML so we keep them on a leash.
var validTable = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, opts rowstore.Options) (rowstore.Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("pg: dsn required")
	}
	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &PG{pool: pool}, nil
}

// PG is a Store backed by a pgx connection pool.
type PG struct {
	pool *pgxpool.Pool
}

// NewWithPool wraps an existing pool, mainly for tests.
func NewWithPool(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func checkTable(table string) error {
	if !validTable.MatchString(table) {
		return fmt.Errorf("pg: invalid table name %q", table)
	}
	return nil
}

func (s *PG) Get(ctx context.Context, table string, key rowstore.Key) (rowstore.Record, error) {
	if err := checkTable(table); err != nil {
		return rowstore.Record{}, err
	}
	q := fmt.Sprintf(`SELECT payload FROM %s WHERE partition_key = $1 AND clustering_key = $2`, table)
	var payload []byte
	err := s.pool.QueryRow(ctx, q, key.Partition, key.Clustering).Scan(&payload)
	if err == pgx.ErrNoRows {
		return rowstore.Record{}, rowstore.ErrNoRow
	}
	if err != nil {
		return rowstore.Record{}, err
	}
	return rowstore.Record{Key: key, Payload: payload}, nil
}

func (s *PG) Scan(ctx context.Context, table, partition string) ([]rowstore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	var (
		rows pgx.Rows
		err  error
	)
	if partition != "" {
		q := fmt.Sprintf(`SELECT partition_key, clustering_key, payload FROM %s WHERE partition_key = $1`, table)
		rows, err = s.pool.Query(ctx, q, partition)
	} else {
		q := fmt.Sprintf(`SELECT partition_key, clustering_key, payload FROM %s`, table)
		rows, err = s.pool.Query(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rowstore.Record
	for rows.Next() {
		var rec rowstore.Record
		if err := rows.Scan(&rec.Key.Partition, &rec.Key.Clustering, &rec.Payload); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PG) Put(ctx context.Context, table string, rec rowstore.Record) error {
	if err := checkTable(table); err != nil {
		return err
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (partition_key, clustering_key, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_key, clustering_key)
		DO UPDATE SET payload = EXCLUDED.payload`, table)
	_, err := s.pool.Exec(ctx, q, rec.Key.Partition, rec.Key.Clustering, rec.Payload)
	return err
}

func (s *PG) PutIfAbsent(ctx context.Context, table string, rec rowstore.Record) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (partition_key, clustering_key, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_key, clustering_key) DO NOTHING`, table)
	tag, err := s.pool.Exec(ctx, q, rec.Key.Partition, rec.Key.Clustering, rec.Payload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PG) Delete(ctx context.Context, table string, key rowstore.Key) error {
	if err := checkTable(table); err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE partition_key = $1 AND clustering_key = $2`, table)
	_, err := s.pool.Exec(ctx, q, key.Partition, key.Clustering)
	return err
}

func (s *PG) EnsureTable(ctx context.Context, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			partition_key  TEXT NOT NULL,
			clustering_key TEXT NOT NULL,
			payload        JSONB NOT NULL,
			PRIMARY KEY (partition_key, clustering_key)
		)`, table)
	_, err := s.pool.Exec(ctx, q)
	return err
}

func (s *PG) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PG) Close() error {
	s.pool.Close()
	return nil
}
