// Package devserver is a local stand-in for the admin API. It serves the
// same routes over a sqlite database so the CLI can be developed and tested
// without the real platform.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/config"
)

const defaultCORSOrigin = "http://localhost:5173"

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    config.DevServerConfig
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *Tokens

	resetSchedule cron.Schedule
}

// New opens the database, seeds it and builds the router
func New(cfg config.DevServerConfig, zlog zerolog.Logger) (*Server, error) {
	var schedule cron.Schedule
	if cfg.ResetSchedule != "" {
		var err error
		if schedule, err = ParseResetSchedule(cfg.ResetSchedule); err != nil {
			return nil, err
		}
	}

	db, err := OpenDatabase(cfg.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}

	if err := Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, err
	}

	s := NewWithDB(cfg, db, zlog)
	s.resetSchedule = schedule
	return s, nil
}

// NewWithDB builds a server over an already migrated database
func NewWithDB(cfg config.DevServerConfig, db *gorm.DB, zlog zerolog.Logger) *Server {
	s := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		tokens:    NewTokens(cfg.JWTSecret, cfg.TokenTTL),
	}
	s.setupRouter()
	return s
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))

	// CORS for the web console
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", client.HeaderAPIKey, client.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no key required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/admin")
	api.Use(APIKeyMiddleware(s.config.APIKey, s.logger))

	api.POST("/login", s.login)

	authed := api.Group("")
	authed.Use(JWTAuthMiddleware(s.tokens, s.logger))
	authed.GET("/verify", s.verify)

	admin := authed.Group("")
	admin.Use(AdminOnlyMiddleware(s.logger))
	{
		admin.GET("/users", s.listUsers)
		admin.GET("/users/:id", s.getUser)
		admin.PUT("/users/:id", s.updateUser)
		admin.DELETE("/users/:id", s.deleteUser)
		admin.GET("/users/:id/comments", s.listUserComments)

		admin.DELETE("/comments/:id", s.deleteComment)

		admin.POST("/books", s.listBooks)
		admin.GET("/books/search", s.searchBooks)
		admin.GET("/books/:id", s.getBook)
		admin.PUT("/books/:id", s.updateBook)
		admin.DELETE("/books/:id", s.deleteBook)

		admin.GET("/tags", s.listTags)
		admin.POST("/tags", s.createTag)
		admin.PUT("/tags/:id", s.updateTag)
		admin.DELETE("/tags/:id", s.deleteTag)

		admin.GET("/stats", s.getStats)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "bookadmin-devserver",
	})
}

// Start serves on the configured address until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.resetSchedule != nil {
		go s.runResetScheduler(ctx, s.resetSchedule)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
