// internal/adapter/storage/postgres.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pulse/internal/domain/analytics"
)

// PostgresStore implements every analytics repository on PostgreSQL
type PostgresStore struct {
	db              *pgxpool.Pool
	retryMaxElapsed time.Duration
}

// NewPostgresStore creates a new PostgreSQL store. Reads are retried with
// exponential backoff for up to retryMaxElapsed; zero disables retries.
func NewPostgresStore(db *pgxpool.Pool, retryMaxElapsed time.Duration) *PostgresStore {
	return &PostgresStore{
		db:              db,
		retryMaxElapsed: retryMaxElapsed,
	}
}

// retry runs a read operation with exponential backoff. Missing rows and
// data or constraint errors are permanent and never retried.
func (s *PostgresStore) retry(ctx context.Context, operation func() error) error {
	if s.retryMaxElapsed <= 0 {
		return operation()
	}

	wrapped := func() error {
		err := operation()
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, analytics.ErrNotFound) || isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = s.retryMaxElapsed

	return backoff.Retry(wrapped, backoff.WithContext(backoffStrategy, ctx))
}

// isPermanent reports SQLSTATE class 22 (data exception) and class 23
// (integrity constraint violation) errors, which fail the same way on retry
func isPermanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	class := pgErr.Code[:2]
	return class == "22" || class == "23"
}

// isInvalidID reports a malformed UUID literal; such an ID matches no row
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

const invalidTextRepresentation = "22P02"

// EnsureSchema creates the analytics tables and indexes when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return analytics.NewStoreError("ensure schema", err)
		}
	}
	return nil
}

// queryBuilder accumulates WHERE clauses and positional arguments
type queryBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *queryBuilder) add(clause string, arg interface{}) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, len(b.args)))
}

func (b *queryBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	out := " WHERE " + b.clauses[0]
	for _, c := range b.clauses[1:] {
		out += " AND " + c
	}
	return out
}

func (b *queryBuilder) addRange(column string, since, until time.Time) {
	if !since.IsZero() {
		b.add(column+" >= $%d", since)
	}
	if !until.IsZero() {
		b.add(column+" < $%d", until)
	}
}

func (b *queryBuilder) addScope(scope analytics.Scope) error {
	if len(scope.Geographic) > 0 {
		data, err := json.Marshal(scope.Geographic)
		if err != nil {
			return fmt.Errorf("error marshaling geographic scope: %w", err)
		}
		b.add("geographic_scope @> $%d", data)
	}
	if len(scope.Demographic) > 0 {
		data, err := json.Marshal(scope.Demographic)
		if err != nil {
			return fmt.Errorf("error marshaling demographic scope: %w", err)
		}
		b.add("demographic_scope @> $%d", data)
	}
	return nil
}

func (b *queryBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	b.args = append(b.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(b.args))
}

func order(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// execBatch sends a batch and surfaces the first statement error
func (s *PostgresStore) execBatch(ctx context.Context, batch *pgx.Batch) error {
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error executing batch statement %d: %w", i, err)
		}
	}
	return nil
}

var (
	_ analytics.SentimentRepository  = (*PostgresStore)(nil)
	_ analytics.MetricRepository     = (*PostgresStore)(nil)
	_ analytics.PredictionRepository = (*PostgresStore)(nil)
	_ analytics.TrendRepository      = (*PostgresStore)(nil)
	_ analytics.ModelRepository      = (*PostgresStore)(nil)
	_ analytics.CommunityRepository  = (*PostgresStore)(nil)
)
