// Package server exposes the mention service over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/monitoring"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const apiPrefix = "/api/v1"

// Server wires HTTP routes to the monitoring service
type Server struct {
	config     *config.Config
	monitoring *monitoring.Service
	router     *mux.Router
}

// New creates the server and registers every route
func New(cfg *config.Config, monitoringService *monitoring.Service) *Server {
	s := &Server{
		config:     cfg,
		monitoring: monitoringService,
		router:     mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(loggingMiddleware)

	// Operational endpoints
	s.router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	s.router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")
	s.router.HandleFunc("/trigger", s.triggerHandler).Methods("POST")

	// API routes are registered with full paths so a wrong method answers 405
	api := func(path string, handler http.HandlerFunc, method string) {
		s.router.HandleFunc(apiPrefix+path, handler).Methods(method)
	}

	api("/health", s.apiHealthHandler, "GET")

	// Ingestion
	api("/webhook/brandmentions", s.brandMentionsHandler, "POST")
	api("/webhook/slack", s.slackHandler, "POST")
	api("/webhook/slack/mentions", s.slackMentionsHandler, "GET")
	api("/webhook/slack/test", s.slackTestHandler, "GET")

	// Store views
	api("/mentions/live", s.liveMentionsHandler, "GET")
	api("/webhook/cache/mentions", s.cachedMentionsHandler, "GET")
	api("/webhook/cache/sentiment", s.cachedSentimentHandler, "GET")
	api("/webhook/health", s.webhookHealthHandler, "GET")
	api("/monitoring/mentions", s.monitoringMentionsHandler, "GET")
	api("/monitoring/sentiment", s.monitoringSentimentHandler, "GET")

	// Upstream providers
	api("/mentionlytics/sentiment", s.upstreamSentimentHandler, "GET")
	api("/mentionlytics/feed", s.upstreamFeedHandler, "GET")
	api("/mentionlytics/geo", s.upstreamGeoHandler, "GET")
	api("/mentionlytics/validate", s.upstreamValidateHandler, "GET")

	// Alerting
	api("/alerting/crisis", s.crisisHandler, "GET")
	api("/alerting/queue", s.alertQueueHandler, "GET")
}

// Handler returns the router wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.config.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Webhook-Token"},
		ExposedHeaders:   []string{dataSourceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler(s.router)
}

// HTTPServer builds the listener for the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	})
}
