package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/database"
	"github.com/deppfellow/bltz-shield/internal/handler"
	"github.com/deppfellow/bltz-shield/internal/lib/retention"
	"github.com/deppfellow/bltz-shield/internal/logger"
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/router"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port    string
	migrate bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and block until SIGINT or SIGTERM.

Examples:
  # Start with configuration from the environment
  shield serve

  # Override the port and run migrations first (postgres/queue backends)
  shield serve --port 9000 --migrate`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "override server.port")
	serveCmd.Flags().BoolVar(&serveFlags.migrate, "migrate", false, "apply database migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if serveFlags.port != "" {
		cfg.Server.Port = serveFlags.port
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveFlags.migrate && cfg.UsesPostgres() {
		if err := database.Migrate(ctx, &log, cfg); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	repos, err := repository.NewRepositories(ctx, srv)
	if err != nil {
		return shutdownOnError(srv, fmt.Errorf("failed to initialize repositories: %w", err))
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close repositories")
		}
	}()

	// The worker needs the writer NewRepositories gave it.
	if srv.Job != nil {
		if err := srv.Job.Start(); err != nil {
			return shutdownOnError(srv, fmt.Errorf("failed to start job server: %w", err))
		}
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		return shutdownOnError(srv, fmt.Errorf("failed to create services: %w", err))
	}

	handlers := handler.NewHandlers(srv, services, repos)
	r := router.NewRouter(srv, handlers, services)
	srv.SetupHTTPServer(r)

	if retentionCfg := cfg.Storage.Retention; retentionCfg.Enabled {
		if repos.Pruner == nil {
			log.Warn().Str("storage", cfg.Storage.Backend).Msg("retention enabled but the storage backend cannot prune")
		} else {
			scheduler := retention.NewScheduler(repos.Pruner, retentionCfg.Schedule, retentionCfg.Days, log)
			if err := scheduler.Start(ctx); err != nil {
				return shutdownOnError(srv, fmt.Errorf("failed to start retention scheduler: %w", err))
			}
			defer scheduler.Stop()
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}

// shutdownOnError releases the pool, Redis and job worker held by srv when
// serve fails before the listener starts, and returns err.
func shutdownOnError(srv *server.Server, err error) error {
	_ = srv.Shutdown(context.Background())
	return err
}
