// internal/adapter/storage/prediction_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"pulse/internal/domain/analytics"
)

const predictionColumns = `
	id, prediction_type, prediction_target, predicted_value,
	confidence_score, prediction_horizon, prediction_date,
	actual_value, accuracy_score, model_version, metadata, created_at
`

// InsertPredictions appends predictions in one batch
func (s *PostgresStore) InsertPredictions(ctx context.Context, predictions ...analytics.TrendPrediction) error {
	if len(predictions) == 0 {
		return nil
	}

	query := `INSERT INTO trend_predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	batch := &pgx.Batch{}
	for _, p := range predictions {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}

		metadataJSON, err := marshalJSON(p.Metadata)
		if err != nil {
			return fmt.Errorf("error marshaling metadata: %w", err)
		}

		batch.Queue(query,
			p.ID,
			string(p.PredictionType),
			p.PredictionTarget,
			p.PredictedValue,
			p.ConfidenceScore,
			string(p.PredictionHorizon),
			p.PredictionDate,
			p.ActualValue,
			p.AccuracyScore,
			p.ModelVersion,
			metadataJSON,
			p.CreatedAt,
		)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return analytics.NewStoreError("insert predictions", err)
	}
	return nil
}

// GetPrediction retrieves a prediction by ID
func (s *PostgresStore) GetPrediction(ctx context.Context, id string) (*analytics.TrendPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM trend_predictions WHERE id = $1`

	var p analytics.TrendPrediction
	err := s.retry(ctx, func() error {
		var err error
		p, err = scanPrediction(s.db.QueryRow(ctx, query, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return nil, analytics.ErrNotFound
	}
	if err != nil {
		return nil, analytics.NewStoreError("get prediction", err)
	}

	return &p, nil
}

// ListPredictions returns predictions matching q, newest first
func (s *PostgresStore) ListPredictions(ctx context.Context, q analytics.PredictionQuery) ([]analytics.TrendPrediction, error) {
	b := &queryBuilder{}
	if q.PredictionType != "" {
		b.add("prediction_type = $%d", string(q.PredictionType))
	}
	b.addRange("created_at", q.Since, q.Until)

	query := `SELECT ` + predictionColumns + ` FROM trend_predictions` + b.where() +
		" ORDER BY created_at DESC" + b.limit(q.Limit)

	var predictions []analytics.TrendPrediction
	err := s.retry(ctx, func() error {
		predictions = []analytics.TrendPrediction{}

		rows, err := s.db.Query(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPrediction(rows)
			if err != nil {
				return err
			}
			predictions = append(predictions, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, analytics.NewStoreError("list predictions", err)
	}

	return predictions, nil
}

// UpdatePredictionOutcome fills the reconciliation fields of a prediction
func (s *PostgresStore) UpdatePredictionOutcome(ctx context.Context, id string, actual, accuracy float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE trend_predictions SET actual_value = $2, accuracy_score = $3 WHERE id = $1`,
		id, actual, accuracy,
	)
	if isInvalidID(err) {
		return analytics.ErrNotFound
	}
	if err != nil {
		return analytics.NewStoreError("update prediction outcome", err)
	}
	if tag.RowsAffected() == 0 {
		return analytics.ErrNotFound
	}
	return nil
}

func scanPrediction(row pgx.Row) (analytics.TrendPrediction, error) {
	var p analytics.TrendPrediction
	var predictionType, horizon string
	var metadataJSON []byte

	if err := row.Scan(
		&p.ID,
		&predictionType,
		&p.PredictionTarget,
		&p.PredictedValue,
		&p.ConfidenceScore,
		&horizon,
		&p.PredictionDate,
		&p.ActualValue,
		&p.AccuracyScore,
		&p.ModelVersion,
		&metadataJSON,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("error scanning prediction: %w", err)
	}

	p.PredictionType = analytics.PredictionType(predictionType)
	p.PredictionHorizon = analytics.Horizon(horizon)

	if err := unmarshalJSON(metadataJSON, &p.Metadata); err != nil {
		return p, fmt.Errorf("error unmarshaling metadata: %w", err)
	}

	return p, nil
}
