// internal/adapter/storage/community_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"pulse/internal/domain/analytics"
)

// CountPosts counts posts created within [since, until) in scope
func (s *PostgresStore) CountPosts(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	return s.count(ctx, "count posts", "SELECT COUNT(*) FROM posts", since, until, scope)
}

// CountComments counts comments created within [since, until) in scope
func (s *PostgresStore) CountComments(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	return s.count(ctx, "count comments", "SELECT COUNT(*) FROM comments", since, until, scope)
}

// CountUsers counts distinct authors of posts or comments within [since, until) in scope
func (s *PostgresStore) CountUsers(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	b := &queryBuilder{}
	b.addRange("created_at", since, until)
	if err := b.addScope(scope); err != nil {
		return 0, err
	}
	where := b.where()

	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT author_id) FROM (
			SELECT author_id FROM posts%s
			UNION ALL
			SELECT author_id FROM comments%s
		) AS authors
	`, where, where)

	return s.countQuery(ctx, "count users", query, b.args)
}

func (s *PostgresStore) count(
	ctx context.Context,
	op, base string,
	since, until time.Time,
	scope analytics.Scope,
) (int, error) {
	b := &queryBuilder{}
	b.addRange("created_at", since, until)
	if err := b.addScope(scope); err != nil {
		return 0, err
	}

	return s.countQuery(ctx, op, base+b.where(), b.args)
}

func (s *PostgresStore) countQuery(ctx context.Context, op, query string, args []interface{}) (int, error) {
	var n int
	err := s.retry(ctx, func() error {
		return s.db.QueryRow(ctx, query, args...).Scan(&n)
	})
	if err != nil {
		return 0, analytics.NewStoreError(op, err)
	}
	return n, nil
}
