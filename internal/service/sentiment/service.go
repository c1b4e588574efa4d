// internal/service/sentiment/service.go

package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/metrics"
)

// ServiceConfig contains configuration for the sentiment service
type ServiceConfig struct {
	EventsTopic     string
	TopContentLimit int
}

// Service scores and stores content sentiment and summarizes stored records
type Service struct {
	scorer     *Scorer
	aggregator *Aggregator
	store      analytics.SentimentRepository
	eventBus   analytics.EventPublisher
	config     ServiceConfig
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new sentiment service. eventBus may be nil.
func NewService(
	scorer *Scorer,
	store analytics.SentimentRepository,
	eventBus analytics.EventPublisher,
	config ServiceConfig,
) *Service {
	return &Service{
		scorer:     scorer,
		aggregator: NewAggregator(config.TopContentLimit),
		store:      store,
		eventBus:   eventBus,
		config:     config,
		logger:     logging.Component("sentiment"),
		now:        time.Now,
	}
}

// Analyze scores text and appends the resulting record to the analytics log
func (s *Service) Analyze(
	ctx context.Context,
	contentID string,
	contentType analytics.ContentType,
	text string,
) (*analytics.SentimentRecord, error) {
	if contentID == "" {
		return nil, fmt.Errorf("content id is required: %w", analytics.ErrInvalidInput)
	}

	result := s.scorer.Score(text)

	record := analytics.SentimentRecord{
		ID:              uuid.New().String(),
		ContentID:       contentID,
		ContentType:     contentType,
		SentimentScore:  result.Score,
		SentimentLabel:  result.Label,
		ConfidenceScore: result.Confidence,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.InsertSentiment(ctx, record); err != nil {
		return nil, fmt.Errorf("error storing sentiment record: %w", err)
	}

	metrics.SentimentAnalyses.WithLabelValues(string(record.SentimentLabel)).Inc()

	if err := s.publish("sentiment.analyzed", record); err != nil {
		s.logger.Warn().Err(err).Str("content_id", contentID).Msg("failed to publish sentiment event")
	}

	return &record, nil
}

// Summary summarizes the records created within [since, until)
func (s *Service) Summary(ctx context.Context, since, until time.Time) (analytics.SentimentSummary, error) {
	records, err := s.store.ListSentiment(ctx, analytics.SentimentQuery{Since: since, Until: until})
	if err != nil {
		return analytics.SentimentSummary{}, fmt.Errorf("error fetching sentiment records: %w", err)
	}

	return s.aggregator.Summarize(records), nil
}

// Trends returns the percentage view of the records created within [since, until)
func (s *Service) Trends(ctx context.Context, since, until time.Time) (analytics.SentimentTrendSummary, error) {
	records, err := s.store.ListSentiment(ctx, analytics.SentimentQuery{Since: since, Until: until})
	if err != nil {
		return analytics.SentimentTrendSummary{}, fmt.Errorf("error fetching sentiment records: %w", err)
	}

	return s.aggregator.Trends(records), nil
}

// publish sends an event to the bus when one is configured
func (s *Service) publish(event string, payload interface{}) error {
	if s.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	return s.eventBus.Publish(fmt.Sprintf("%s.%s", s.config.EventsTopic, event), data)
}
