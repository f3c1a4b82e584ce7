// Package server
//
// @title KrishiSevak API
// @version 1.0
// @description Farming assistant API: auth, chat, satellite field monitoring
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/agro"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/auth"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/chat"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/fields"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router        *gin.Engine
	db            *gorm.DB
	config        *config.Config
	logger        zerolog.Logger
	validator     *validator.Validate
	asynqClient   *asynq.Client
	authManager   *auth.Manager
	chatService   *chat.Service
	agroClient    *agro.Client
	fieldsService *fields.Service
	version       string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Select the auth provider once at startup; everything downstream sees
	// the same manager regardless of which backend is active.
	provider, err := auth.SelectProvider(cfg, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth provider: %w", err)
	}
	authManager := auth.NewManager(provider, zlog)

	// Best-effort restore of any persisted backend session. A cold start
	// with nothing to restore is not an error.
	if authManager.Mode() == auth.ModeEmbedded {
		restoreCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		authManager.GetCurrentSession(restoreCtx)
		cancel()
	}

	// Initialize validator
	validate := validator.New()

	// Field names are used as Agromonitoring polygon names; keep them
	// filesystem/URL safe.
	validate.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' || char == '_' || char == ' ') {
				return false
			}
		}
		return true
	})

	// Initialize Asynq client for enqueueing monitoring tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	agroClient := agro.New(cfg.Agro, zlog)
	chatService := chat.NewService(cfg.OpenAI, zlog)
	fieldsService := fields.NewService(db, agroClient, asynqClient, zlog)

	server := &Server{
		db:            db,
		config:        cfg,
		logger:        zlog,
		validator:     validate,
		asynqClient:   asynqClient,
		authManager:   authManager,
		chatService:   chatService,
		agroClient:    agroClient,
		fieldsService: fieldsService,
		version:       version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // seconds
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode first for concurrency, then the rest
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/signup", s.signUp)
	s.router.POST("/api/auth/login", s.signIn)
	s.router.POST("/api/auth/google", s.signInWithGoogle)
	s.router.POST("/api/auth/recover", s.resetPassword)

	// Authenticated API routes (bearer token required)
	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.authManager, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getMe)
		api.GET("/auth/session", s.getSession)
		api.POST("/auth/logout", s.signOut)
		api.PUT("/auth/password", s.updatePassword)
		api.PATCH("/auth/profile", s.updateProfile)

		// Assistant
		api.POST("/chat", s.askAssistant)
		api.GET("/chat/history", s.chatHistory)

		// Field monitoring
		api.GET("/fields", s.listFields)
		api.POST("/fields", s.registerField)
		api.GET("/fields/:id", s.getField)
		api.DELETE("/fields/:id", s.deleteField)
		api.GET("/fields/:id/ndvi", s.fieldNDVI)
		api.GET("/fields/:id/images", s.fieldImages)

		// Weather
		api.GET("/weather", s.getWeather)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "krishisevak-api",
		"authMode":  s.authManager.Mode(),
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// AuthManager returns the session manager (used by tests and the worker)
func (s *Server) AuthManager() *auth.Manager {
	return s.authManager
}

// Router exposes the configured router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      90 * time.Second, // assistant calls can be slow
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Tear down the auth manager (stops the provider event bridge)
	if err := s.authManager.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing auth manager")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
