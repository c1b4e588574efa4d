package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/analytics"
)

// newTestPostgres connects to PULSE_TEST_DATABASE_URL, creates the schema and
// empties every table. The test is skipped when the variable is unset.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv("PULSE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PULSE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := pgxpool.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store := NewPostgresStore(db, time.Second)
	require.NoError(t, store.EnsureSchema(ctx))

	_, err = db.Exec(ctx, `TRUNCATE sentiment_analysis, community_metrics, trend_predictions,
		trend_analysis, ml_models, posts, comments`)
	require.NoError(t, err)

	return store
}

func TestPostgresStore_SentimentAndMetrics(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertSentiment(ctx,
		analytics.SentimentRecord{ID: uuid.New().String(), ContentID: "p1", ContentType: analytics.ContentPost,
			SentimentScore: 0.5, SentimentLabel: analytics.LabelPositive, ConfidenceScore: 0.8, CreatedAt: base.Add(time.Hour)},
		analytics.SentimentRecord{ID: uuid.New().String(), ContentID: "p2", ContentType: analytics.ContentComment,
			SentimentScore: -0.5, SentimentLabel: analytics.LabelNegative, ConfidenceScore: 0.7, CreatedAt: base},
	))

	records, err := store.ListSentiment(ctx, analytics.SentimentQuery{Since: base, Until: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p2", records[0].ContentID)
	assert.Equal(t, analytics.LabelNegative, records[0].SentimentLabel)

	scope := map[string]string{"city": "Lisbon", "country": "PT"}
	require.NoError(t, store.InsertMetrics(ctx,
		analytics.MetricSample{ID: uuid.New().String(), MetricName: "engagement_rate", MetricValue: 12,
			TimePeriod: analytics.PeriodDaily, GeographicScope: scope, CalculatedAt: base},
		analytics.MetricSample{ID: uuid.New().String(), MetricName: "engagement_rate", MetricValue: 15,
			TimePeriod: analytics.PeriodDaily, CalculatedAt: base.Add(time.Hour)},
	))

	scoped, err := store.ListMetrics(ctx, analytics.MetricQuery{
		Names: []string{"engagement_rate"},
		Scope: analytics.Scope{Geographic: map[string]string{"country": "PT"}},
	})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, 12.0, scoped[0].MetricValue)
	assert.Equal(t, scope, scoped[0].GeographicScope)

	latest, err := store.ListMetrics(ctx, analytics.MetricQuery{Names: []string{"engagement_rate"}, Descending: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 15.0, latest[0].MetricValue)
}

func TestPostgresStore_PredictionOutcome(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	p := analytics.TrendPrediction{
		ID:                uuid.New().String(),
		PredictionType:    analytics.PredictionEngagement,
		PredictionTarget:  "engagement_trend",
		PredictedValue:    10,
		ConfidenceScore:   0.9,
		PredictionHorizon: analytics.HorizonShort,
		PredictionDate:    time.Now().UTC().AddDate(0, 0, 7),
		ModelVersion:      "linear_trend_v1",
		Metadata:          map[string]interface{}{"data_points": 4},
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, store.InsertPredictions(ctx, p))

	require.NoError(t, store.UpdatePredictionOutcome(ctx, p.ID, 8, 0.75))

	got, err := store.GetPrediction(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualValue)
	assert.Equal(t, 8.0, *got.ActualValue)
	assert.Equal(t, 0.75, *got.AccuracyScore)
	assert.EqualValues(t, 4, got.Metadata["data_points"])

	_, err = store.GetPrediction(ctx, uuid.New().String())
	assert.ErrorIs(t, err, analytics.ErrNotFound)
	assert.ErrorIs(t, store.UpdatePredictionOutcome(ctx, uuid.New().String(), 1, 1), analytics.ErrNotFound)
}

func TestPostgresStore_ModelActivation(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id := uuid.New().String()
		require.NoError(t, store.InsertModel(ctx, analytics.MLModel{
			ID:           id,
			ModelName:    "trend",
			ModelType:    analytics.ModelTrend,
			ModelVersion: "1.0.0",
			ModelData:    []byte{0, 1, 2, byte(i)},
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}))
		ids = append(ids, id)
	}

	for _, id := range ids {
		require.NoError(t, store.ActivateModel(ctx, id))

		active, err := store.GetActiveModel(ctx, analytics.ModelTrend)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, id, active.ID)
	}

	models, err := store.ListModels(ctx, analytics.ModelTrend)
	require.NoError(t, err)
	active := 0
	for _, m := range models {
		if m.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)

	m, err := store.GetModel(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 2}, m.ModelData)

	assert.ErrorIs(t, store.ActivateModel(ctx, uuid.New().String()), analytics.ErrNotFound)
}

func TestPostgresStore_ConcurrentActivation(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		id := uuid.New().String()
		require.NoError(t, store.InsertModel(ctx, analytics.MLModel{
			ID:           id,
			ModelName:    "trend",
			ModelType:    analytics.ModelTrend,
			ModelVersion: "1.0.0",
			ModelData:    []byte{byte(i)},
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}))
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, store.ActivateModel(ctx, id))
		}(ids[i%len(ids)])
	}
	wg.Wait()

	models, err := store.ListModels(ctx, analytics.ModelTrend)
	require.NoError(t, err)

	active := 0
	for _, m := range models {
		if m.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestPostgresStore_MalformedIDs(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	_, err := store.GetPrediction(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, analytics.ErrNotFound)

	_, err = store.GetModel(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, analytics.ErrNotFound)

	assert.ErrorIs(t, store.UpdatePredictionOutcome(ctx, "not-a-uuid", 1, 1), analytics.ErrNotFound)
	assert.ErrorIs(t, store.ActivateModel(ctx, "not-a-uuid"), analytics.ErrNotFound)
	assert.ErrorIs(t, store.UpdateModelMetrics(ctx, "not-a-uuid", map[string]float64{"accuracy": 1}), analytics.ErrNotFound)
	assert.ErrorIs(t, store.DeleteModel(ctx, "not-a-uuid"), analytics.ErrNotFound)
}

func TestPostgresStore_CommunityCounts(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	author := uuid.New().String()
	other := uuid.New().String()
	postID := uuid.New().String()

	_, err := store.db.Exec(ctx,
		`INSERT INTO posts (id, author_id, geographic_scope, created_at) VALUES ($1, $2, '{"city":"Lisbon"}', $3), ($4, $5, '{}', $3)`,
		postID, author, base, uuid.New().String(), other)
	require.NoError(t, err)
	_, err = store.db.Exec(ctx,
		`INSERT INTO comments (id, post_id, author_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), postID, author, base.Add(time.Hour))
	require.NoError(t, err)

	until := base.Add(24 * time.Hour)

	posts, err := store.CountPosts(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 2, posts)

	comments, err := store.CountComments(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, comments)

	users, err := store.CountUsers(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 2, users)

	lisbon, err := store.CountPosts(ctx, base, until, analytics.Scope{Geographic: map[string]string{"city": "Lisbon"}})
	require.NoError(t, err)
	assert.Equal(t, 1, lisbon)
}

func TestPostgresStore_RetryClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"invalid uuid", &pgconn.PgError{Code: "22P02"}, true},
		{"unique violation", fmt.Errorf("error inserting: %w", &pgconn.PgError{Code: "23505"}), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"plain error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.permanent, isPermanent(tt.err))
		})
	}

	assert.True(t, isInvalidID(fmt.Errorf("scan: %w", &pgconn.PgError{Code: "22P02"})))
	assert.False(t, isInvalidID(&pgconn.PgError{Code: "23505"}))
}

func TestPostgresStore_RetryStopsOnPermanentError(t *testing.T) {
	store := NewPostgresStore(nil, time.Minute)

	calls := 0
	start := time.Now()
	err := store.retry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: "22P02"}
	})

	assert.True(t, isInvalidID(err))
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}
