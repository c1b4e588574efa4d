// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"pulse/internal/adapter/storage"
	"pulse/internal/config"
	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/server"
	"pulse/internal/service/insights"
	"pulse/internal/service/mlmodel"
	"pulse/internal/service/prediction"
	"pulse/internal/service/sentiment"
)

// analyticsStore is satisfied by both storage backends
type analyticsStore interface {
	analytics.SentimentRepository
	analytics.MetricRepository
	analytics.PredictionRepository
	analytics.TrendRepository
	analytics.ModelRepository
	analytics.CommunityRepository
}

func main() {
	// A missing .env file is fine; the environment may be set directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := logging.Component("main")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize storage
	var store analyticsStore
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		store = storage.NewMemoryStore()
	default:
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()

		pgStore := storage.NewPostgresStore(db, cfg.Storage.RetryMaxElapsed)
		if cfg.Database.EnsureSchema {
			if err := pgStore.EnsureSchema(ctx); err != nil {
				logger.Fatal().Err(err).Msg("failed to ensure schema")
			}
		}
		store = pgStore
	}

	// Initialize event bus
	var eventBus analytics.EventPublisher
	if cfg.NATS.URL != "" {
		natsConn, err := initNATS(cfg.NATS)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer natsConn.Close()
		eventBus = natsConn
	} else {
		logger.Info().Msg("NATS_URL empty; analytics events are not published")
	}

	// Initialize services
	sentimentService := sentiment.NewService(
		sentiment.NewScorer(sentiment.DefaultLexicon()),
		store,
		eventBus,
		sentiment.ServiceConfig{
			EventsTopic:     cfg.Analytics.EventsTopic,
			TopContentLimit: cfg.Analytics.TopContentLimit,
		},
	)

	metricNames := make(map[analytics.PredictionType]string, len(cfg.Analytics.PredictionMetrics))
	for predictionType, metricName := range cfg.Analytics.PredictionMetrics {
		metricNames[analytics.PredictionType(predictionType)] = metricName
	}

	predictionService := prediction.NewService(
		prediction.NewEngine(nil),
		store,
		store,
		eventBus,
		prediction.ServiceConfig{
			EventsTopic: cfg.Analytics.EventsTopic,
			SeriesLimit: cfg.Analytics.SeriesLimit,
			MetricNames: metricNames,
		},
	)

	trendAnalyzer := prediction.NewTrendAnalyzer(store, store, store)

	modelManager := mlmodel.NewManager(
		store,
		eventBus,
		nil,
		mlmodel.ManagerConfig{
			EventsTopic:       cfg.Analytics.EventsTopic,
			TrendFeatureCount: cfg.Analytics.TrendFeatureCount,
		},
	)

	insightsService := insights.NewService(
		sentimentService,
		trendAnalyzer,
		predictionService,
		store,
		store,
		eventBus,
		insights.ServiceConfig{
			EventsTopic: cfg.Analytics.EventsTopic,
		},
	)

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Services{
		Insights:    insightsService,
		Sentiment:   sentimentService,
		Predictions: predictionService,
		Trends:      trendAnalyzer,
		Models:      modelManager,
	})

	// Start HTTP server
	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	logger := logging.Component("nats")

	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
