package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/analytics"
)

func TestMemoryStore_ListSentiment(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertSentiment(ctx,
		analytics.SentimentRecord{ID: "c", ContentType: analytics.ContentComment, CreatedAt: base.Add(2 * time.Hour)},
		analytics.SentimentRecord{ID: "a", ContentType: analytics.ContentPost, CreatedAt: base},
		analytics.SentimentRecord{ID: "b", ContentType: analytics.ContentPost, CreatedAt: base.Add(time.Hour)},
		analytics.SentimentRecord{ContentType: analytics.ContentPost, CreatedAt: base.Add(3 * time.Hour)},
	))

	all, err := store.ListSentiment(ctx, analytics.SentimentQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)
	assert.NotEmpty(t, all[3].ID)

	// until is exclusive
	window, err := store.ListSentiment(ctx, analytics.SentimentQuery{Since: base.Add(time.Hour), Until: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "b", window[0].ID)

	posts, err := store.ListSentiment(ctx, analytics.SentimentQuery{ContentType: analytics.ContentPost, Descending: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, base.Add(3*time.Hour), posts[0].CreatedAt)
	assert.Equal(t, "b", posts[1].ID)
}

func TestMemoryStore_ListMetrics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertMetrics(ctx,
		analytics.MetricSample{ID: "1", MetricName: "engagement_rate", TimePeriod: analytics.PeriodDaily, CalculatedAt: base},
		analytics.MetricSample{ID: "2", MetricName: "engagement_rate", TimePeriod: analytics.PeriodWeekly, CalculatedAt: base.Add(time.Hour),
			GeographicScope: map[string]string{"city": "Porto", "country": "PT"}},
		analytics.MetricSample{ID: "3", MetricName: "total_users", TimePeriod: analytics.PeriodDaily, CalculatedAt: base.Add(2 * time.Hour)},
		analytics.MetricSample{ID: "4", MetricName: "engagement_rate", TimePeriod: analytics.PeriodDaily, CalculatedAt: base.Add(3 * time.Hour),
			DemographicScope: map[string]string{"age": "18-24"}},
	))

	tests := []struct {
		name string
		q    analytics.MetricQuery
		ids  []string
	}{
		{"all ascending", analytics.MetricQuery{}, []string{"1", "2", "3", "4"}},
		{"by name", analytics.MetricQuery{Names: []string{"engagement_rate"}}, []string{"1", "2", "4"}},
		{"several names", analytics.MetricQuery{Names: []string{"total_users", "engagement_rate"}, Descending: true, Limit: 2}, []string{"4", "3"}},
		{"by period", analytics.MetricQuery{TimePeriod: analytics.PeriodWeekly}, []string{"2"}},
		{"geographic subset", analytics.MetricQuery{Scope: analytics.Scope{Geographic: map[string]string{"country": "PT"}}}, []string{"2"}},
		{"geographic mismatch", analytics.MetricQuery{Scope: analytics.Scope{Geographic: map[string]string{"country": "ES"}}}, nil},
		{"demographic", analytics.MetricQuery{Scope: analytics.Scope{Demographic: map[string]string{"age": "18-24"}}}, []string{"4"}},
		{"window", analytics.MetricQuery{Since: base.Add(time.Hour), Until: base.Add(3 * time.Hour)}, []string{"2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := store.ListMetrics(ctx, tt.q)
			require.NoError(t, err)

			var ids []string
			for _, s := range samples {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestMemoryStore_Predictions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertPredictions(ctx,
		analytics.TrendPrediction{ID: "old", PredictionType: analytics.PredictionGrowth, CreatedAt: base},
		analytics.TrendPrediction{ID: "new", PredictionType: analytics.PredictionGrowth, CreatedAt: base.Add(time.Hour)},
		analytics.TrendPrediction{ID: "other", PredictionType: analytics.PredictionEvent, CreatedAt: base.Add(2 * time.Hour)},
	))

	growth, err := store.ListPredictions(ctx, analytics.PredictionQuery{PredictionType: analytics.PredictionGrowth})
	require.NoError(t, err)
	require.Len(t, growth, 2)
	assert.Equal(t, "new", growth[0].ID)

	require.NoError(t, store.UpdatePredictionOutcome(ctx, "old", 12, 0.9))

	p, err := store.GetPrediction(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, p.ActualValue)
	assert.Equal(t, 12.0, *p.ActualValue)
	assert.Equal(t, 0.9, *p.AccuracyScore)

	_, err = store.GetPrediction(ctx, "missing")
	assert.ErrorIs(t, err, analytics.ErrNotFound)
	assert.ErrorIs(t, store.UpdatePredictionOutcome(ctx, "missing", 1, 1), analytics.ErrNotFound)
}

func TestMemoryStore_TrendAnalyses(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertTrendAnalyses(ctx,
		analytics.TrendAnalysis{ID: "1", TrendType: analytics.TrendSentiment, CreatedAt: base},
		analytics.TrendAnalysis{ID: "2", TrendType: analytics.TrendEngagement, CreatedAt: base.Add(time.Hour)},
		analytics.TrendAnalysis{ID: "3", TrendType: analytics.TrendSentiment, CreatedAt: base.Add(2 * time.Hour)},
	))

	all, err := store.ListTrendAnalyses(ctx, analytics.TrendQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "3", all[0].ID)
	assert.Equal(t, "2", all[1].ID)

	sentiment, err := store.ListTrendAnalyses(ctx, analytics.TrendQuery{TrendType: analytics.TrendSentiment, Until: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, sentiment, 1)
	assert.Equal(t, "1", sentiment[0].ID)
}

func TestMemoryStore_Models(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	data := []byte{1, 2, 3}
	require.NoError(t, store.InsertModel(ctx, analytics.MLModel{ID: "s1", ModelType: analytics.ModelSentiment, ModelData: data, CreatedAt: base}))
	require.NoError(t, store.InsertModel(ctx, analytics.MLModel{ID: "s2", ModelType: analytics.ModelSentiment, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.InsertModel(ctx, analytics.MLModel{ID: "t1", ModelType: analytics.ModelTrend, CreatedAt: base}))

	// Stored bytes are a copy
	data[0] = 9
	m, err := store.GetModel(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, m.ModelData)

	sentiment, err := store.ListModels(ctx, analytics.ModelSentiment)
	require.NoError(t, err)
	require.Len(t, sentiment, 2)
	assert.Equal(t, "s2", sentiment[0].ID)

	all, err := store.ListModels(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := store.GetActiveModel(ctx, analytics.ModelSentiment)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, store.ActivateModel(ctx, "s1"))
	require.NoError(t, store.ActivateModel(ctx, "t1"))
	require.NoError(t, store.ActivateModel(ctx, "s2"))

	active, err = store.GetActiveModel(ctx, analytics.ModelSentiment)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "s2", active.ID)

	previous, err := store.GetModel(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, previous.IsActive)

	trend, err := store.GetActiveModel(ctx, analytics.ModelTrend)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.Equal(t, "t1", trend.ID)

	require.NoError(t, store.UpdateModelMetrics(ctx, "s2", map[string]float64{"accuracy": 0.7}))
	m, err = store.GetModel(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0.7, m.PerformanceMetrics["accuracy"])

	require.NoError(t, store.DeleteModel(ctx, "s2"))
	active, err = store.GetActiveModel(ctx, analytics.ModelSentiment)
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.ErrorIs(t, store.ActivateModel(ctx, "s2"), analytics.ErrNotFound)
	assert.ErrorIs(t, store.DeleteModel(ctx, "s2"), analytics.ErrNotFound)
	assert.ErrorIs(t, store.UpdateModelMetrics(ctx, "s2", nil), analytics.ErrNotFound)
	_, err = store.GetModel(ctx, "s2")
	assert.ErrorIs(t, err, analytics.ErrNotFound)
}

func TestMemoryStore_ConcurrentActivation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range ids {
		require.NoError(t, store.InsertModel(ctx, analytics.MLModel{ID: id, ModelType: analytics.ModelTrend}))
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
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

func TestMemoryStore_CommunityCounts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lisbon := analytics.Scope{Geographic: map[string]string{"city": "Lisbon"}}

	store.AddCommunityEvent(
		CommunityEvent{Kind: EventPost, ID: "p1", AuthorID: "u1", CreatedAt: base, Scope: lisbon},
		CommunityEvent{Kind: EventPost, ID: "p2", AuthorID: "u2", CreatedAt: base.Add(time.Hour)},
		CommunityEvent{Kind: EventPost, ID: "p2", AuthorID: "u2", CreatedAt: base.Add(time.Hour)},
		CommunityEvent{Kind: EventComment, ID: "c1", AuthorID: "u1", CreatedAt: base.Add(2 * time.Hour), Scope: lisbon},
		CommunityEvent{Kind: EventComment, ID: "c2", AuthorID: "u3", CreatedAt: base.Add(3 * time.Hour)},
		CommunityEvent{Kind: EventPost, ID: "late", AuthorID: "u4", CreatedAt: base.Add(48 * time.Hour)},
	)

	until := base.Add(24 * time.Hour)

	posts, err := store.CountPosts(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 2, posts)

	comments, err := store.CountComments(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 2, comments)

	users, err := store.CountUsers(ctx, base, until, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 3, users)

	scopedUsers, err := store.CountUsers(ctx, base, until, lisbon)
	require.NoError(t, err)
	assert.Equal(t, 1, scopedUsers)

	allPosts, err := store.CountPosts(ctx, time.Time{}, time.Time{}, analytics.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 3, allPosts)
}
