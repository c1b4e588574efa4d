// internal/adapter/storage/memory_store.go

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulse/internal/domain/analytics"
)

// Community event kinds
const (
	EventPost    = "post"
	EventComment = "comment"
)

// CommunityEvent is a post or comment held by the memory store
type CommunityEvent struct {
	Kind      string
	ID        string
	AuthorID  string
	CreatedAt time.Time
	Scope     analytics.Scope
}

// MemoryStore implements every analytics repository in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	sentiment   []analytics.SentimentRecord
	metrics     []analytics.MetricSample
	predictions []analytics.TrendPrediction
	trends      []analytics.TrendAnalysis
	models      map[string]analytics.MLModel
	community   []CommunityEvent
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		models: make(map[string]analytics.MLModel),
	}
}

// InsertSentiment appends sentiment records
func (s *MemoryStore) InsertSentiment(ctx context.Context, records ...analytics.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		s.sentiment = append(s.sentiment, r)
	}
	return nil
}

// ListSentiment returns sentiment records matching q
func (s *MemoryStore) ListSentiment(ctx context.Context, q analytics.SentimentQuery) ([]analytics.SentimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []analytics.SentimentRecord{}
	for _, r := range s.sentiment {
		if !inRange(r.CreatedAt, q.Since, q.Until) {
			continue
		}
		if q.ContentType != "" && r.ContentType != q.ContentType {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return limit(out, q.Limit), nil
}

// InsertMetrics appends metric samples
func (s *MemoryStore) InsertMetrics(ctx context.Context, samples ...analytics.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range samples {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		s.metrics = append(s.metrics, m)
	}
	return nil
}

// ListMetrics returns metric samples matching q
func (s *MemoryStore) ListMetrics(ctx context.Context, q analytics.MetricQuery) ([]analytics.MetricSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]bool, len(q.Names))
	for _, n := range q.Names {
		names[n] = true
	}

	out := []analytics.MetricSample{}
	for _, m := range s.metrics {
		if len(names) > 0 && !names[m.MetricName] {
			continue
		}
		if q.TimePeriod != "" && m.TimePeriod != q.TimePeriod {
			continue
		}
		if !inRange(m.CalculatedAt, q.Since, q.Until) {
			continue
		}
		if !containsAll(m.GeographicScope, q.Scope.Geographic) || !containsAll(m.DemographicScope, q.Scope.Demographic) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return out[i].CalculatedAt.After(out[j].CalculatedAt)
		}
		return out[i].CalculatedAt.Before(out[j].CalculatedAt)
	})

	return limit(out, q.Limit), nil
}

// InsertPredictions appends predictions
func (s *MemoryStore) InsertPredictions(ctx context.Context, predictions ...analytics.TrendPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range predictions {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		s.predictions = append(s.predictions, p)
	}
	return nil
}

// GetPrediction returns a prediction by ID
func (s *MemoryStore) GetPrediction(ctx context.Context, id string) (*analytics.TrendPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.predictions {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, analytics.ErrNotFound
}

// ListPredictions returns predictions matching q, newest first
func (s *MemoryStore) ListPredictions(ctx context.Context, q analytics.PredictionQuery) ([]analytics.TrendPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []analytics.TrendPrediction{}
	for _, p := range s.predictions {
		if q.PredictionType != "" && p.PredictionType != q.PredictionType {
			continue
		}
		if !inRange(p.CreatedAt, q.Since, q.Until) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return limit(out, q.Limit), nil
}

// UpdatePredictionOutcome fills the reconciliation fields of a prediction
func (s *MemoryStore) UpdatePredictionOutcome(ctx context.Context, id string, actual, accuracy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.predictions {
		if s.predictions[i].ID == id {
			s.predictions[i].ActualValue = &actual
			s.predictions[i].AccuracyScore = &accuracy
			return nil
		}
	}
	return analytics.ErrNotFound
}

// InsertTrendAnalyses appends trend analyses
func (s *MemoryStore) InsertTrendAnalyses(ctx context.Context, analyses ...analytics.TrendAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range analyses {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		s.trends = append(s.trends, a)
	}
	return nil
}

// ListTrendAnalyses returns trend analyses matching q, newest first
func (s *MemoryStore) ListTrendAnalyses(ctx context.Context, q analytics.TrendQuery) ([]analytics.TrendAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []analytics.TrendAnalysis{}
	for _, a := range s.trends {
		if q.TrendType != "" && a.TrendType != q.TrendType {
			continue
		}
		if !inRange(a.CreatedAt, q.Since, q.Until) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return limit(out, q.Limit), nil
}

// InsertModel stores a model
func (s *MemoryStore) InsertModel(ctx context.Context, m analytics.MLModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.ModelData = append([]byte(nil), m.ModelData...)
	s.models[m.ID] = m
	return nil
}

// GetModel returns a model by ID
func (s *MemoryStore) GetModel(ctx context.Context, id string) (*analytics.MLModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return nil, analytics.ErrNotFound
	}
	return &m, nil
}

// ListModels returns models of a type, newest first
func (s *MemoryStore) ListModels(ctx context.Context, modelType analytics.ModelType) ([]analytics.MLModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []analytics.MLModel{}
	for _, m := range s.models {
		if modelType == "" || m.ModelType == modelType {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// GetActiveModel returns the active model of a type or nil
func (s *MemoryStore) GetActiveModel(ctx context.Context, modelType analytics.ModelType) (*analytics.MLModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.models {
		if m.ModelType == modelType && m.IsActive {
			return &m, nil
		}
	}
	return nil, nil
}

// ActivateModel activates id and deactivates its siblings under one lock
func (s *MemoryStore) ActivateModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.models[id]
	if !ok {
		return analytics.ErrNotFound
	}

	now := time.Now().UTC()
	for mid, m := range s.models {
		if m.ModelType != target.ModelType {
			continue
		}
		active := mid == id
		if m.IsActive != active {
			m.IsActive = active
			m.UpdatedAt = now
			s.models[mid] = m
		}
	}
	return nil
}

// UpdateModelMetrics replaces a model's performance metrics
func (s *MemoryStore) UpdateModelMetrics(ctx context.Context, id string, metrics map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return analytics.ErrNotFound
	}
	m.PerformanceMetrics = metrics
	m.UpdatedAt = time.Now().UTC()
	s.models[id] = m
	return nil
}

// DeleteModel removes a model
func (s *MemoryStore) DeleteModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return analytics.ErrNotFound
	}
	delete(s.models, id)
	return nil
}

// AddCommunityEvent records community activity for the count queries
func (s *MemoryStore) AddCommunityEvent(events ...CommunityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.community = append(s.community, events...)
}

// CountPosts counts posts created within [since, until) in scope
func (s *MemoryStore) CountPosts(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	return len(s.communityIDs(since, until, scope, EventPost, func(e CommunityEvent) string { return e.ID })), nil
}

// CountComments counts comments created within [since, until) in scope
func (s *MemoryStore) CountComments(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	return len(s.communityIDs(since, until, scope, EventComment, func(e CommunityEvent) string { return e.ID })), nil
}

// CountUsers counts distinct authors of posts or comments within [since, until) in scope
func (s *MemoryStore) CountUsers(ctx context.Context, since, until time.Time, scope analytics.Scope) (int, error) {
	return len(s.communityIDs(since, until, scope, "", func(e CommunityEvent) string { return e.AuthorID })), nil
}

// communityIDs collects the distinct keys of matching events; an empty kind matches all
func (s *MemoryStore) communityIDs(
	since, until time.Time,
	scope analytics.Scope,
	kind string,
	key func(CommunityEvent) string,
) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, e := range s.community {
		if kind != "" && e.Kind != kind {
			continue
		}
		if !inRange(e.CreatedAt, since, until) {
			continue
		}
		if !containsAll(e.Scope.Geographic, scope.Geographic) || !containsAll(e.Scope.Demographic, scope.Demographic) {
			continue
		}
		seen[key(e)] = true
	}
	return seen
}

// inRange reports whether t falls in [since, until); zero bounds are open
func inRange(t, since, until time.Time) bool {
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !until.IsZero() && !t.Before(until) {
		return false
	}
	return true
}

// containsAll reports whether every key/value of want is present in have
func containsAll(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

var (
	_ analytics.SentimentRepository  = (*MemoryStore)(nil)
	_ analytics.MetricRepository     = (*MemoryStore)(nil)
	_ analytics.PredictionRepository = (*MemoryStore)(nil)
	_ analytics.TrendRepository      = (*MemoryStore)(nil)
	_ analytics.ModelRepository      = (*MemoryStore)(nil)
	_ analytics.CommunityRepository  = (*MemoryStore)(nil)
)
