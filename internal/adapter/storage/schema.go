// internal/adapter/storage/schema.go

package storage

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sentiment_analysis (
		id UUID PRIMARY KEY,
		content_id TEXT NOT NULL,
		content_type TEXT NOT NULL,
		sentiment_score DOUBLE PRECISION NOT NULL,
		sentiment_label TEXT NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sentiment_analysis_created_at_idx ON sentiment_analysis (created_at)`,

	`CREATE TABLE IF NOT EXISTS community_metrics (
		id UUID PRIMARY KEY,
		metric_name TEXT NOT NULL,
		metric_value DOUBLE PRECISION NOT NULL,
		time_period TEXT NOT NULL,
		geographic_scope JSONB NOT NULL DEFAULT '{}',
		demographic_scope JSONB NOT NULL DEFAULT '{}',
		calculated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS community_metrics_name_idx ON community_metrics (metric_name, calculated_at)`,

	`CREATE TABLE IF NOT EXISTS trend_predictions (
		id UUID PRIMARY KEY,
		prediction_type TEXT NOT NULL,
		prediction_target TEXT NOT NULL,
		predicted_value DOUBLE PRECISION NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		prediction_horizon TEXT NOT NULL,
		prediction_date TIMESTAMPTZ NOT NULL,
		actual_value DOUBLE PRECISION,
		accuracy_score DOUBLE PRECISION,
		model_version TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS trend_analysis (
		id UUID PRIMARY KEY,
		trend_type TEXT NOT NULL,
		trend_name TEXT NOT NULL,
		trend_score DOUBLE PRECISION NOT NULL,
		trend_direction TEXT NOT NULL,
		confidence_level DOUBLE PRECISION NOT NULL,
		time_window_start TIMESTAMPTZ NOT NULL,
		time_window_end TIMESTAMPTZ NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS ml_models (
		id UUID PRIMARY KEY,
		model_name TEXT NOT NULL,
		model_type TEXT NOT NULL,
		model_version TEXT NOT NULL,
		model_data TEXT NOT NULL,
		model_metadata JSONB NOT NULL DEFAULT '{}',
		performance_metrics JSONB NOT NULL DEFAULT '{}',
		training_data_hash TEXT,
		is_active BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ml_models_one_active_idx ON ml_models (model_type) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		author_id UUID NOT NULL,
		geographic_scope JSONB NOT NULL DEFAULT '{}',
		demographic_scope JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		author_id UUID NOT NULL,
		geographic_scope JSONB NOT NULL DEFAULT '{}',
		demographic_scope JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
