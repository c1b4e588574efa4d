package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/adapter/storage"
	"pulse/internal/config"
	"pulse/internal/domain/analytics"
	"pulse/internal/service/insights"
	"pulse/internal/service/mlmodel"
	"pulse/internal/service/prediction"
	"pulse/internal/service/sentiment"
)

func newTestRouter(t *testing.T) (http.Handler, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()

	sentimentService := sentiment.NewService(sentiment.NewScorer(sentiment.DefaultLexicon()), store, nil, sentiment.ServiceConfig{
		EventsTopic:     "analytics",
		TopContentLimit: 5,
	})
	predictionService := prediction.NewService(prediction.NewEngine(nil), store, store, nil, prediction.ServiceConfig{
		EventsTopic: "analytics",
	})
	trendAnalyzer := prediction.NewTrendAnalyzer(store, store, store)
	modelManager := mlmodel.NewManager(store, nil, nil, mlmodel.ManagerConfig{EventsTopic: "analytics"})
	insightsService := insights.NewService(sentimentService, trendAnalyzer, predictionService, store, store, nil, insights.ServiceConfig{
		EventsTopic: "analytics",
	})

	router := NewRouter(config.ServerConfig{CorsOrigins: []string{"*"}}, Services{
		Insights:    insightsService,
		Sentiment:   sentimentService,
		Predictions: predictionService,
		Trends:      trendAnalyzer,
		Models:      modelManager,
	})

	return router, store
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Sentiment(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/sentiment/analyze", map[string]string{
		"content_id": "post-1",
		"text":       "what a great and helpful community",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record analytics.SentimentRecord
	decode(t, rec, &record)
	assert.Equal(t, analytics.ContentPost, record.ContentType)
	assert.Equal(t, analytics.LabelPositive, record.SentimentLabel)

	rec = do(t, router, http.MethodGet, "/api/v1/sentiment/summary?period=daily", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary analytics.SentimentSummary
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.TotalAnalyses)
	assert.Equal(t, 1, summary.SentimentDistribution.Positive)

	rec = do(t, router, http.MethodGet, "/api/v1/sentiment/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trends analytics.SentimentTrendSummary
	decode(t, rec, &trends)
	assert.InDelta(t, 100.0, trends.PositivePercentage, 1e-9)
}

func TestRouter_SentimentBadRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/sentiment/analyze", map[string]string{"text": "good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sentiment/analyze", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/sentiment/summary?period=fortnightly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "Invalid period", body["error"])
	assert.NotEmpty(t, body["detail"])
}

func TestRouter_ModelLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/models/predict/sentiment", map[string]string{"text": "good"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models/predict/clustering", map[string]string{"text": "good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models/train/sentiment", map[string]interface{}{"training_data": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models/train/sentiment", map[string]interface{}{
		"training_data": []map[string]string{
			{"text": "great thread", "label": "positive"},
			{"text": "awful spam", "label": "negative"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ModelID string `json:"model_id"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.ModelID)

	rec = do(t, router, http.MethodGet, "/api/v1/models/active/sentiment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models/"+created.ModelID+"/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/models/active/sentiment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var active analytics.MLModel
	decode(t, rec, &active)
	assert.Equal(t, created.ModelID, active.ID)
	assert.True(t, active.IsActive)
	assert.InDelta(t, 1.0, active.PerformanceMetrics["accuracy"], 1e-9)

	rec = do(t, router, http.MethodPost, "/api/v1/models/predict/sentiment", map[string]string{"text": "really great people"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result mlmodel.PredictionResult
	decode(t, rec, &result)
	assert.Equal(t, analytics.LabelPositive, result.Label)

	rec = do(t, router, http.MethodPost, "/api/v1/models/batch-predict/sentiment", map[string]interface{}{
		"inputs": []map[string]string{{"text": "good"}, {"text": "terrible"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var results []mlmodel.PredictionResult
	decode(t, rec, &results)
	require.Len(t, results, 2)
	assert.Equal(t, analytics.LabelNegative, results[1].Label)

	rec = do(t, router, http.MethodPut, "/api/v1/models/"+created.ModelID+"/metrics", map[string]float64{"f1": 0.5})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/models?type=sentiment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var models []analytics.MLModel
	decode(t, rec, &models)
	require.Len(t, models, 1)
	assert.Equal(t, map[string]float64{"f1": 0.5}, models[0].PerformanceMetrics)

	rec = do(t, router, http.MethodDelete, "/api/v1/models/"+created.ModelID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/models/"+created.ModelID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_StoreLinearModel(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/models", map[string]interface{}{
		"model_name":    "hand_tuned",
		"model_type":    "trend",
		"model_version": "2.0.0",
		"params": map[string]interface{}{
			"kind":   "linear",
			"linear": map[string]interface{}{"coefficients": []float64{2}, "intercept": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ModelID string `json:"model_id"`
	}
	decode(t, rec, &created)

	rec = do(t, router, http.MethodPost, "/api/v1/models/"+created.ModelID+"/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models/predict/trend", map[string]interface{}{"features": []float64{4}})
	require.Equal(t, http.StatusOK, rec.Code)

	var result mlmodel.PredictionResult
	decode(t, rec, &result)
	assert.InDelta(t, 9.0, result.Prediction, 1e-9)

	rec = do(t, router, http.MethodPost, "/api/v1/models", map[string]interface{}{
		"model_name":    "broken",
		"model_type":    "trend",
		"model_version": "1",
		"params":        map[string]interface{}{"kind": "linear"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/models", map[string]interface{}{
		"model_name":    "mismatched",
		"model_type":    "sentiment",
		"model_version": "1",
		"params": map[string]interface{}{
			"kind":   "linear",
			"linear": map[string]interface{}{"coefficients": []float64{1}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/models/active/sentiment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Predictions(t *testing.T) {
	router, store := newTestRouter(t)

	now := time.Now().UTC()
	for i, v := range []float64{10, 12, 14} {
		require.NoError(t, store.InsertMetrics(context.Background(), analytics.MetricSample{
			MetricName:   "engagement_rate",
			MetricValue:  v,
			TimePeriod:   analytics.PeriodDaily,
			CalculatedAt: now.AddDate(0, 0, i-3),
		}))
	}

	rec := do(t, router, http.MethodPost, "/api/v1/predictions", map[string]string{
		"prediction_type": "engagement",
		"horizon":         "short",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var predictions []analytics.TrendPrediction
	decode(t, rec, &predictions)
	require.Len(t, predictions, 2)
	assert.Equal(t, prediction.LinearTrendVersion, predictions[0].ModelVersion)
	assert.InDelta(t, 26.0, predictions[0].PredictedValue, 1e-9)

	rec = do(t, router, http.MethodPost, "/api/v1/predictions", map[string]string{"prediction_type": "weather"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/predictions?type=engagement&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []analytics.TrendPrediction
	decode(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = do(t, router, http.MethodGet, "/api/v1/predictions?limit=-4", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/v1/predictions/" + predictions[0].ID + "/reconcile"

	rec = do(t, router, http.MethodPost, path, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, path, map[string]float64{"actual_value": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	var reconciled analytics.TrendPrediction
	decode(t, rec, &reconciled)
	require.NotNil(t, reconciled.AccuracyScore)
	assert.InDelta(t, 0.7, *reconciled.AccuracyScore, 1e-9)

	rec = do(t, router, http.MethodPost, "/api/v1/predictions/missing/reconcile", map[string]float64{"actual_value": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Insights(t *testing.T) {
	router, store := newTestRouter(t)

	now := time.Now().UTC()
	store.AddCommunityEvent(
		storage.CommunityEvent{Kind: storage.EventPost, ID: "p1", AuthorID: "u1", CreatedAt: now.Add(-time.Hour),
			Scope: analytics.Scope{Geographic: map[string]string{"city": "Lisbon"}}},
		storage.CommunityEvent{Kind: storage.EventComment, ID: "c1", AuthorID: "u2", CreatedAt: now.Add(-time.Hour)},
	)

	rec := do(t, router, http.MethodGet, "/api/v1/insights?period=daily&enabled=metrics,recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report analytics.CommunityInsights
	decode(t, rec, &report)
	assert.Equal(t, analytics.PeriodDaily, report.TimePeriod)
	assert.Equal(t, 1, report.Metrics.TotalPosts)
	assert.Equal(t, 2, report.Metrics.TotalUsers)
	assert.InDelta(t, 100.0, report.Metrics.EngagementRate, 1e-9)
	assert.Empty(t, report.Predictions)

	rec = do(t, router, http.MethodGet, "/api/v1/insights?enabled=metrics&geo.city=Lisbon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &report)
	assert.Equal(t, 1, report.Metrics.TotalUsers)
	assert.Equal(t, "Lisbon", report.Scope.Geographic["city"])

	rec = do(t, router, http.MethodGet, "/api/v1/insights?enabled=weather", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/insights/store?enabled=metrics", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/insights/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []analytics.MetricSample
	decode(t, rec, &history)
	assert.Len(t, history, 6)

	rec = do(t, router, http.MethodGet, "/api/v1/insights/history?since=2024-02-01T00:00:00Z&until=2024-01-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/insights/history?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_InsightsExport(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/insights/export?format=csv&enabled=metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=insights.csv", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Metric,Value\n"))

	rec = do(t, router, http.MethodGet, "/api/v1/insights/export?enabled=metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = do(t, router, http.MethodGet, "/api/v1/insights/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Trends(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trends []analytics.TrendAnalysis
	decode(t, rec, &trends)
	assert.Empty(t, trends)

	rec = do(t, router, http.MethodGet, "/api/v1/trends?type=sentiment&period=monthly", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/trends?type=weather", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
