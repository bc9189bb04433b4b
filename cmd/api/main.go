package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VishwasN1706/airis/internal/adapter/controller/http/handlers"
	"github.com/VishwasN1706/airis/internal/adapter/controller/http/middleware"
	"github.com/VishwasN1706/airis/internal/adapter/controller/ws"
	"github.com/VishwasN1706/airis/internal/adapter/external/intel"
	"github.com/VishwasN1706/airis/internal/config"
	"github.com/VishwasN1706/airis/internal/usecase/conversation"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := config.SetupLogger(cfg)
	logger.Info("Starting AIRIS API",
		"env", cfg.App.Env,
		"port", cfg.App.Port,
		"intel_base_url", cfg.Intel.BaseURL,
	)

	// Lookup client with read-through bundle cache
	client := intel.NewClient(intel.Config{
		BaseURL:        cfg.Intel.BaseURL,
		Timeout:        cfg.Intel.Timeout,
		RateLimitDelay: cfg.Intel.RateLimitDelay,
	})
	cachedClient := intel.NewCachedClient(client, cfg.Intel.CacheTTL)

	// Conversation engine
	chatService := conversation.NewService(cachedClient, cfg.Chat.ReplyDelay, logger)

	// WebSocket hub for live message delivery
	hub := ws.NewHub(logger)
	go hub.Run()
	chatService.SetNotifier(hub)

	sessionsHandler := handlers.NewSessionsHandler(chatService)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health check
	r.Get("/health", handlers.HealthCheck(cfg, cachedClient))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionsHandler.Create)
			r.Get("/{id}", sessionsHandler.Get)
			r.Post("/{id}/messages", sessionsHandler.SubmitMessage)
			r.Get("/{id}/export", sessionsHandler.Export)
		})
	})

	// WebSocket endpoint
	r.Get("/ws/sessions/{id}", hub.ServeWS)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
