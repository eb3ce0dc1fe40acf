// Package main provides the session-todos server and its admin commands.
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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"session-todos/internal/config"
	"session-todos/internal/database"
	"session-todos/internal/middleware"
	"session-todos/internal/queue"
	"session-todos/internal/repository"
	"session-todos/internal/routes"
	"session-todos/internal/service"
	"session-todos/internal/session"
	"session-todos/internal/worker"
	"session-todos/pkg/logger"
)

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "session-todos",
	Short:         "Multi-user todo lists behind a session login",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Init()
		if err != nil {
			return err
		}
		cfg = c
		logger.Init(os.Stdout, cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(addUserCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, closeStore, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Change feed is optional; the publisher is a no-op without brokers
	queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaPartitions)
	events := queue.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	defer events.Close()

	manager := session.NewManager(store, session.NewCodec(cfg.SessionSecret), cfg.SessionTTL)
	handler, err := routes.Router(routes.Dependencies{
		Todos:       service.NewTodoService(repository.NewTodoRepository(db), events),
		Users:       service.NewUserService(repository.NewUserRepository(db)),
		Sessions:    &middleware.Sessions{Manager: manager, Cookie: cfg.SessionCookie, Secure: cfg.CookieSecure},
		DB:          db,
		Development: cfg.Development(),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.EventConsumerEnabled {
		consumer := worker.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.EventConsumerGroup)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	err = g.Wait()
	logger.Info(ctx, "Server stopped")
	return err
}

func openDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateOrCreateSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}
	return db, nil
}

// sessionStore picks Redis when REDIS_URL is set, else an in-process store.
func sessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn(ctx, "REDIS_URL not set; sessions are kept in memory and lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}
