// Package server defines the Server struct that composes the app's shared
// dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - PostgreSQL pool (postgres and queue storage backends only)
//   - Redis client (only when an address is configured)
//   - background job service (queue storage backend only)
//   - Prometheus collector
//   - http.Server
//
// Dependencies the configured storage backend does not need are left nil, so
// the default deployment (backend "none") runs without any external service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/database"
	"github.com/deppfellow/bltz-shield/internal/lib/job"
	"github.com/deppfellow/bltz-shield/internal/metrics"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/bltz-shield/internal/logger"
)

// RedisPingTimeout bounds the startup Redis check.
const RedisPingTimeout = 5 * time.Second

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself; the *http.Server is private and set up
// by SetupHTTPServer.
type Server struct {
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application. Its application is nil
	// when the agent is disabled.
	LoggerService *loggerPkg.LoggerService

	// DB is nil unless the storage backend is postgres or queue.
	DB *database.Database

	// Redis is nil unless redis.address is set.
	Redis *redis.Client

	// Job is nil unless the storage backend is queue.
	Job *job.JobService

	// Metrics is always present; GET /metrics is only routed when enabled.
	Metrics *metrics.Collector

	httpServer *http.Server
}

// New constructs a Server and initializes the dependencies the configuration
// asks for. It does not start listening; see SetupHTTPServer and Start.
//
// Notes:
//   - A database failure blocks startup, because the backend cannot store.
//   - A Redis ping failure only blocks startup for the queue backend; for
//     everything else Redis is a health check target and nothing more.
//   - The job worker is started later, by the caller, once the repository
//     layer has given it a writer.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Metrics:       metrics.NewCollector(),
	}

	if cfg.UsesPostgres() {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.DB = db
	}

	if cfg.UsesRedis() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if loggerService != nil && loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
		err := redisClient.Ping(ctx).Err()
		cancel()

		if err != nil {
			if cfg.Storage.Backend == config.StorageQueue {
				_ = redisClient.Close()
				s.closeDB()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			logger.Error().Err(err).Msg("failed to connect to redis, continuing without it")
		}
		s.Redis = redisClient
	}

	if cfg.Storage.Backend == config.StorageQueue {
		s.Job = job.NewJobService(logger, cfg)
	}

	return s, nil
}

// SetupHTTPServer configures the internal net/http server around handler,
// usually the echo instance built by the router package.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server and blocks until it stops. It returns
// http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("storage", s.Config.Storage.Backend).
		Bool("enforce_schema", s.Config.Metadata.EnforceSchema).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// ShutdownTimeout is the grace period configured for Shutdown.
func (s *Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.Config.Server.ShutdownTimeout) * time.Second
}

// Shutdown gracefully stops the server and releases its dependencies.
//
// Order matters: in-flight requests finish first, then the job worker
// drains, and only then are the pool and Redis closed underneath them.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	s.closeDB()

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Server) closeDB() {
	if s.DB == nil {
		return
	}
	if err := s.DB.Close(); err != nil {
		s.Logger.Error().Err(err).Msg("failed to close database connection")
	}
}
