// internal/adapter/storage/sentiment_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"pulse/internal/domain/analytics"
)

// InsertSentiment appends sentiment records in one batch
func (s *PostgresStore) InsertSentiment(ctx context.Context, records ...analytics.SentimentRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO sentiment_analysis (
			id, content_id, content_type, sentiment_score,
			sentiment_label, confidence_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		batch.Queue(query,
			r.ID,
			r.ContentID,
			string(r.ContentType),
			r.SentimentScore,
			string(r.SentimentLabel),
			r.ConfidenceScore,
			r.CreatedAt,
		)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return analytics.NewStoreError("insert sentiment", err)
	}
	return nil
}

// ListSentiment returns sentiment records matching q
func (s *PostgresStore) ListSentiment(ctx context.Context, q analytics.SentimentQuery) ([]analytics.SentimentRecord, error) {
	b := &queryBuilder{}
	b.addRange("created_at", q.Since, q.Until)
	if q.ContentType != "" {
		b.add("content_type = $%d", string(q.ContentType))
	}

	query := `
		SELECT id, content_id, content_type, sentiment_score,
			sentiment_label, confidence_score, created_at
		FROM sentiment_analysis` + b.where() +
		fmt.Sprintf(" ORDER BY created_at %s", order(q.Descending)) + b.limit(q.Limit)

	var records []analytics.SentimentRecord
	err := s.retry(ctx, func() error {
		records = []analytics.SentimentRecord{}

		rows, err := s.db.Query(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r analytics.SentimentRecord
			var contentType, label string
			if err := rows.Scan(
				&r.ID,
				&r.ContentID,
				&contentType,
				&r.SentimentScore,
				&label,
				&r.ConfidenceScore,
				&r.CreatedAt,
			); err != nil {
				return fmt.Errorf("error scanning sentiment record: %w", err)
			}
			r.ContentType = analytics.ContentType(contentType)
			r.SentimentLabel = analytics.SentimentLabel(label)
			records = append(records, r)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, analytics.NewStoreError("list sentiment", err)
	}

	return records, nil
}
