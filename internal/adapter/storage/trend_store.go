// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"pulse/internal/domain/analytics"
)

// InsertTrendAnalyses appends trend analyses in one batch
func (s *PostgresStore) InsertTrendAnalyses(ctx context.Context, analyses ...analytics.TrendAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}

	query := `
		INSERT INTO trend_analysis (
			id, trend_type, trend_name, trend_score, trend_direction,
			confidence_level, time_window_start, time_window_end,
			metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, a := range analyses {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}

		metadataJSON, err := marshalJSON(a.Metadata)
		if err != nil {
			return fmt.Errorf("error marshaling metadata: %w", err)
		}

		batch.Queue(query,
			a.ID,
			string(a.TrendType),
			a.TrendName,
			a.TrendScore,
			string(a.TrendDirection),
			a.ConfidenceLevel,
			a.TimeWindowStart,
			a.TimeWindowEnd,
			metadataJSON,
			a.CreatedAt,
		)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return analytics.NewStoreError("insert trend analyses", err)
	}
	return nil
}

// ListTrendAnalyses returns trend analyses matching q, newest first
func (s *PostgresStore) ListTrendAnalyses(ctx context.Context, q analytics.TrendQuery) ([]analytics.TrendAnalysis, error) {
	b := &queryBuilder{}
	if q.TrendType != "" {
		b.add("trend_type = $%d", string(q.TrendType))
	}
	b.addRange("created_at", q.Since, q.Until)

	query := `
		SELECT
			id, trend_type, trend_name, trend_score, trend_direction,
			confidence_level, time_window_start, time_window_end,
			metadata, created_at
		FROM trend_analysis` + b.where() + " ORDER BY created_at DESC" + b.limit(q.Limit)

	var analyses []analytics.TrendAnalysis
	err := s.retry(ctx, func() error {
		analyses = []analytics.TrendAnalysis{}

		rows, err := s.db.Query(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var a analytics.TrendAnalysis
			var trendType, direction string
			var metadataJSON []byte

			if err := rows.Scan(
				&a.ID,
				&trendType,
				&a.TrendName,
				&a.TrendScore,
				&direction,
				&a.ConfidenceLevel,
				&a.TimeWindowStart,
				&a.TimeWindowEnd,
				&metadataJSON,
				&a.CreatedAt,
			); err != nil {
				return fmt.Errorf("error scanning trend analysis: %w", err)
			}

			a.TrendType = analytics.TrendType(trendType)
			a.TrendDirection = analytics.TrendDirection(direction)

			if err := unmarshalJSON(metadataJSON, &a.Metadata); err != nil {
				return fmt.Errorf("error unmarshaling metadata: %w", err)
			}

			analyses = append(analyses, a)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, analytics.NewStoreError("list trend analyses", err)
	}

	return analyses, nil
}
