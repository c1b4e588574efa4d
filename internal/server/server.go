// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulse/internal/config"
	"pulse/internal/server/handlers"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Insights    handlers.InsightsService
	Sentiment   handlers.SentimentService
	Predictions handlers.PredictionService
	Trends      handlers.TrendAnalyzer
	Models      handlers.ModelManager
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, services Services) *Server {
	router := NewRouter(cfg, services)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, services Services) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	insightsHandler := handlers.NewInsightsHandler(services.Insights)
	sentimentHandler := handlers.NewSentimentHandler(services.Sentiment)
	predictionHandler := handlers.NewPredictionHandler(services.Predictions)
	trendHandler := handlers.NewTrendHandler(services.Trends)
	modelHandler := handlers.NewModelHandler(services.Models)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Insights API
			r.Route("/insights", func(r chi.Router) {
				r.Get("/", insightsHandler.GetInsights)
				r.Post("/store", insightsHandler.StoreInsights)
				r.Get("/history", insightsHandler.GetHistory)
				r.Get("/export", insightsHandler.Export)
			})

			// Sentiment API
			r.Route("/sentiment", func(r chi.Router) {
				r.Post("/analyze", sentimentHandler.Analyze)
				r.Get("/summary", sentimentHandler.GetSummary)
				r.Get("/trends", sentimentHandler.GetTrends)
			})

			// Predictions API
			r.Route("/predictions", func(r chi.Router) {
				r.Get("/", predictionHandler.ListPredictions)
				r.Post("/", predictionHandler.Generate)
				r.Post("/{id}/reconcile", predictionHandler.Reconcile)
			})

			// Trends API
			r.Get("/trends", trendHandler.GetTrends)

			// Models API
			r.Route("/models", func(r chi.Router) {
				r.Get("/", modelHandler.ListModels)
				r.Post("/", modelHandler.StoreModel)
				r.Get("/active/{type}", modelHandler.GetActiveModel)
				r.Post("/train/sentiment", modelHandler.TrainSentiment)
				r.Post("/train/trend", modelHandler.TrainTrend)
				r.Post("/predict/{type}", modelHandler.Predict)
				r.Post("/batch-predict/{type}", modelHandler.BatchPredict)
				r.Post("/{id}/activate", modelHandler.ActivateModel)
				r.Put("/{id}/metrics", modelHandler.UpdateMetrics)
				r.Delete("/{id}", modelHandler.DeleteModel)
			})
		})
	})

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
