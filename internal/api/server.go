// Package api exposes the HTTP surface of the symptom tracking server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/database"
	"github.com/fibrotrack-server/internal/domain"
	"github.com/fibrotrack-server/internal/middleware"
	"github.com/fibrotrack-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	entries       *service.EntryService
	screening     *service.ScreeningService
	rollup        *service.RollupService
	monthly       *service.MonthlyService
	profiles      *service.ProfileService
	db            *database.DB
	router        *gin.Engine
	server        *http.Server
	log           *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	entries *service.EntryService,
	screening *service.ScreeningService,
	rollup *service.RollupService,
	monthly *service.MonthlyService,
	profiles *service.ProfileService,
	db *database.DB,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	}

	server := &Server{
		configManager: configManager,
		entries:       entries,
		screening:     screening,
		rollup:        rollup,
		monthly:       monthly,
		profiles:      profiles,
		db:            db,
		router:        router,
		log:           logger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the underlying engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/daily-entry", s.handleCreateDailyEntry)
		v1.GET("/daily-entry", s.handleGetDailyEntry)
		v1.GET("/daily-entries", s.handleListDailyEntries)

		v1.POST("/screening", s.handleSubmitScreening)
		v1.GET("/screening/latest", s.handleLatestScreening)

		v1.GET("/weekly-summary", s.handleWeeklySummary)
		v1.GET("/weekly-summaries", s.handleListWeeklySummaries)
		v1.GET("/report/final", s.handleFinalReport)

		v1.POST("/monthly-entry", s.handleMonthlyEntry)

		v1.GET("/profile", s.handleGetProfile)
		v1.POST("/profile", s.handleUpdateProfile)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := s.db.Health(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		s.log.WithError(err).Warn("Database health check failed")
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
