package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/morich/attract-backend/internal/attract/events"
	"github.com/morich/attract-backend/internal/attract/extraction"
	"github.com/morich/attract-backend/internal/attract/generation"
	"github.com/morich/attract-backend/internal/attract/handler"
	"github.com/morich/attract-backend/internal/attract/service"
	"github.com/morich/attract-backend/internal/attract/storage"
	"github.com/morich/attract-backend/pkg/config"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/morich/attract-backend/pkg/logger"
	"github.com/morich/attract-backend/pkg/messaging"
)

const serviceName = "attract-service"

func main() {
	// A local .env is optional; real environment variables win
	_ = godotenv.Load()

	// Production and staging fail fast when required configuration is missing
	load := config.Load
	if config.IsProductionLike() {
		load = config.LoadWithValidation
	}
	cfg, err := load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Attract Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize generator. Without an API key the service still starts and
	// answers generation requests with the api key error.
	gen, err := generation.New(ctx, cfg.Generation)
	switch {
	case errors.Is(err, generation.ErrNotConfigured):
		log.Warn().Msg("no API key configured, generation requests will fail")
		gen = nil
	case err != nil:
		log.Fatal().Err(err).Msg("failed to create generator")
	default:
		log.Info().
			Str("provider", gen.Name()).
			Str("model", cfg.Generation.Model).
			Msg("generator ready")
	}

	// Connect to RabbitMQ when events are enabled
	var (
		rmq       *messaging.RabbitMQ
		publisher service.EventPublisher
	)
	if cfg.RabbitMQ.Enabled() {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		scriptEvents, err := events.NewScriptEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = scriptEvents
	}

	// Initialize storage and service
	store := storage.NewSessionStore(cfg.Session.TTL)
	defer store.Close()

	scriptService := service.NewService(
		gen,
		extraction.NewPDF(cfg.Upload.MaxPDFBytes),
		extraction.NewURL(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch.MaxBytes),
		store,
		publisher,
		log,
		service.Options{
			RequestTimeout:  cfg.Generation.RequestTimeout,
			FallbackSection: cfg.Session.FallbackSection,
		},
	)

	// Initialize handlers
	scriptHandler := handler.NewScriptHandler(scriptService, log)
	sessionHandler := handler.NewSessionHandler(scriptService, log)
	documentHandler := handler.NewDocumentHandler(scriptService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// i18n middleware - extract locale from Accept-Language header
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"provider": scriptService.Provider(),
			"sessions": store.Len(),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	handler.Mount(r, scriptHandler, sessionHandler, documentHandler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Cancel session generations and let them record their outcome
	store.Close()
	if err := scriptService.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("background generations did not finish")
	}

	log.Info().Msg("server stopped")
}
