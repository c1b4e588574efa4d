// internal/adapter/storage/metric_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"pulse/internal/domain/analytics"
)

// InsertMetrics appends metric samples in one batch
func (s *PostgresStore) InsertMetrics(ctx context.Context, samples ...analytics.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO community_metrics (
			id, metric_name, metric_value, time_period,
			geographic_scope, demographic_scope, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, m := range samples {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}

		geoJSON, err := marshalJSON(m.GeographicScope)
		if err != nil {
			return fmt.Errorf("error marshaling geographic scope: %w", err)
		}
		demoJSON, err := marshalJSON(m.DemographicScope)
		if err != nil {
			return fmt.Errorf("error marshaling demographic scope: %w", err)
		}

		batch.Queue(query,
			m.ID,
			m.MetricName,
			m.MetricValue,
			string(m.TimePeriod),
			geoJSON,
			demoJSON,
			m.CalculatedAt,
		)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return analytics.NewStoreError("insert metrics", err)
	}
	return nil
}

// ListMetrics returns metric samples matching q
func (s *PostgresStore) ListMetrics(ctx context.Context, q analytics.MetricQuery) ([]analytics.MetricSample, error) {
	b := &queryBuilder{}
	if len(q.Names) > 0 {
		b.add("metric_name = ANY($%d)", q.Names)
	}
	if q.TimePeriod != "" {
		b.add("time_period = $%d", string(q.TimePeriod))
	}
	b.addRange("calculated_at", q.Since, q.Until)
	if err := b.addScope(q.Scope); err != nil {
		return nil, err
	}

	query := `
		SELECT id, metric_name, metric_value, time_period,
			geographic_scope, demographic_scope, calculated_at
		FROM community_metrics` + b.where() +
		fmt.Sprintf(" ORDER BY calculated_at %s", order(q.Descending)) + b.limit(q.Limit)

	var samples []analytics.MetricSample
	err := s.retry(ctx, func() error {
		samples = []analytics.MetricSample{}

		rows, err := s.db.Query(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var m analytics.MetricSample
			var period string
			var geoJSON, demoJSON []byte
			if err := rows.Scan(
				&m.ID,
				&m.MetricName,
				&m.MetricValue,
				&period,
				&geoJSON,
				&demoJSON,
				&m.CalculatedAt,
			); err != nil {
				return fmt.Errorf("error scanning metric: %w", err)
			}
			m.TimePeriod = analytics.TimePeriod(period)

			if err := unmarshalJSON(geoJSON, &m.GeographicScope); err != nil {
				return fmt.Errorf("error unmarshaling geographic scope: %w", err)
			}
			if err := unmarshalJSON(demoJSON, &m.DemographicScope); err != nil {
				return fmt.Errorf("error unmarshaling demographic scope: %w", err)
			}

			samples = append(samples, m)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, analytics.NewStoreError("list metrics", err)
	}

	return samples, nil
}
