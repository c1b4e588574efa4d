// internal/adapter/storage/model_store.go

package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"pulse/internal/domain/analytics"
)

const modelColumns = `
	id, model_name, model_type, model_version, model_data,
	model_metadata, performance_metrics, training_data_hash,
	is_active, created_at, updated_at
`

// InsertModel stores a model. Model bytes are kept as base64 text.
func (s *PostgresStore) InsertModel(ctx context.Context, m analytics.MLModel) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	metadataJSON, err := marshalJSON(m.ModelMetadata)
	if err != nil {
		return fmt.Errorf("error marshaling model metadata: %w", err)
	}
	metricsJSON, err := marshalJSON(m.PerformanceMetrics)
	if err != nil {
		return fmt.Errorf("error marshaling performance metrics: %w", err)
	}

	query := `INSERT INTO ml_models (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = s.db.Exec(ctx, query,
		m.ID,
		m.ModelName,
		string(m.ModelType),
		m.ModelVersion,
		base64.StdEncoding.EncodeToString(m.ModelData),
		metadataJSON,
		metricsJSON,
		m.TrainingDataHash,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return analytics.NewStoreError("insert model", err)
	}

	return nil
}

// GetModel retrieves a model by ID
func (s *PostgresStore) GetModel(ctx context.Context, id string) (*analytics.MLModel, error) {
	query := `SELECT ` + modelColumns + ` FROM ml_models WHERE id = $1`

	var m analytics.MLModel
	err := s.retry(ctx, func() error {
		var err error
		m, err = scanModel(s.db.QueryRow(ctx, query, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return nil, analytics.ErrNotFound
	}
	if err != nil {
		return nil, analytics.NewStoreError("get model", err)
	}

	return &m, nil
}

// ListModels returns models of a type, or of every type when empty, newest first
func (s *PostgresStore) ListModels(ctx context.Context, modelType analytics.ModelType) ([]analytics.MLModel, error) {
	b := &queryBuilder{}
	if modelType != "" {
		b.add("model_type = $%d", string(modelType))
	}

	query := `SELECT ` + modelColumns + ` FROM ml_models` + b.where() + " ORDER BY created_at DESC, id DESC"

	var models []analytics.MLModel
	err := s.retry(ctx, func() error {
		models = []analytics.MLModel{}

		rows, err := s.db.Query(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanModel(rows)
			if err != nil {
				return err
			}
			models = append(models, m)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, analytics.NewStoreError("list models", err)
	}

	return models, nil
}

// GetActiveModel returns the active model of a type, or nil when none is active
func (s *PostgresStore) GetActiveModel(ctx context.Context, modelType analytics.ModelType) (*analytics.MLModel, error) {
	query := `SELECT ` + modelColumns + ` FROM ml_models WHERE model_type = $1 AND is_active LIMIT 1`

	var m analytics.MLModel
	err := s.retry(ctx, func() error {
		var err error
		m, err = scanModel(s.db.QueryRow(ctx, query, string(modelType)))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, analytics.NewStoreError("get active model", err)
	}

	return &m, nil
}

// ActivateModel makes id the only active model of its type. Activations of
// one type serialize on a transaction-scoped advisory lock keyed by the type,
// and both updates commit together, so readers never observe two active
// models.
func (s *PostgresStore) ActivateModel(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error starting transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	// model_type never changes after insert, so it is safe to read before locking
	var modelType string
	err = tx.QueryRow(ctx, `SELECT model_type FROM ml_models WHERE id = $1`, id).Scan(&modelType)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return analytics.ErrNotFound
	}
	if err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error reading model type: %w", err))
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "ml_models:"+modelType); err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error locking model type: %w", err))
	}

	// The model may have been deleted while waiting for the lock
	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM ml_models WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return analytics.ErrNotFound
	}
	if err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error locking model: %w", err))
	}

	// The partial unique index is checked per row, so siblings go inactive first.
	_, err = tx.Exec(ctx, `
		UPDATE ml_models SET is_active = false, updated_at = now()
		WHERE model_type = $1 AND is_active AND id <> $2
	`, modelType, id)
	if err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error deactivating models: %w", err))
	}

	_, err = tx.Exec(ctx, `UPDATE ml_models SET is_active = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error activating model: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return analytics.NewStoreError("activate model", fmt.Errorf("error committing transaction: %w", err))
	}

	return nil
}

// UpdateModelMetrics replaces the performance metrics of a model
func (s *PostgresStore) UpdateModelMetrics(ctx context.Context, id string, metrics map[string]float64) error {
	metricsJSON, err := marshalJSON(metrics)
	if err != nil {
		return fmt.Errorf("error marshaling performance metrics: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE ml_models SET performance_metrics = $2, updated_at = now() WHERE id = $1`,
		id, metricsJSON,
	)
	if isInvalidID(err) {
		return analytics.ErrNotFound
	}
	if err != nil {
		return analytics.NewStoreError("update model metrics", err)
	}
	if tag.RowsAffected() == 0 {
		return analytics.ErrNotFound
	}
	return nil
}

// DeleteModel removes a model
func (s *PostgresStore) DeleteModel(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM ml_models WHERE id = $1`, id)
	if isInvalidID(err) {
		return analytics.ErrNotFound
	}
	if err != nil {
		return analytics.NewStoreError("delete model", err)
	}
	if tag.RowsAffected() == 0 {
		return analytics.ErrNotFound
	}
	return nil
}

func scanModel(row pgx.Row) (analytics.MLModel, error) {
	var m analytics.MLModel
	var modelType, encoded string
	var hash *string
	var metadataJSON, metricsJSON []byte

	if err := row.Scan(
		&m.ID,
		&m.ModelName,
		&modelType,
		&m.ModelVersion,
		&encoded,
		&metadataJSON,
		&metricsJSON,
		&hash,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("error scanning model: %w", err)
	}

	m.ModelType = analytics.ModelType(modelType)
	if hash != nil {
		m.TrainingDataHash = *hash
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return m, fmt.Errorf("error decoding model data: %w", err)
	}
	m.ModelData = data

	if err := unmarshalJSON(metadataJSON, &m.ModelMetadata); err != nil {
		return m, fmt.Errorf("error unmarshaling model metadata: %w", err)
	}
	if err := unmarshalJSON(metricsJSON, &m.PerformanceMetrics); err != nil {
		return m, fmt.Errorf("error unmarshaling performance metrics: %w", err)
	}

	return m, nil
}
