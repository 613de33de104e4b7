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

	"shotlog/internal/advisor"
	"shotlog/internal/config"
	"shotlog/internal/database"
	"shotlog/internal/database/boltstore"
	"shotlog/internal/database/sqlitestore"
	"shotlog/internal/handlers"
	"shotlog/internal/metrics"
	"shotlog/internal/routing"
	"shotlog/internal/shots"
	"shotlog/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "shotlog:", err)
		os.Exit(1)
	}

	setupLogging(cfg)
	log.Info().Str("version", version).Msg("Starting shotlog")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}

// parseLogLevel maps the configured level, falling back to info.
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	// Use pretty console logging in development, JSON in production
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}

// openStore opens the record store named by the config.
func openStore(cfg *config.Config) (database.Store, string, error) {
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, "", err
	}

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := sqlitestore.Open(path)
		if err != nil {
			return nil, "", err
		}
		return store, path, nil
	default:
		opts := boltstore.DefaultOptions()
		opts.Path = path
		store, err := boltstore.Open(opts)
		if err != nil {
			return nil, "", err
		}
		return store, path, nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.TracingEnabled {
		tp, err := tracing.Init(ctx, cfg.OTLPEndpoint, version)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
		log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("Tracing enabled")
	}

	store, dbPath, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Str("database", dbPath).Msg("Record store opened")

	svc := shots.NewService(store, advisor.ForLanguage(cfg.AdviceLanguage))
	h := handlers.NewHandler(svc, store, handlers.Config{
		SecureCookies: cfg.SecureCookies,
	})

	// Setup router with middleware
	handler := routing.SetupRouter(ctx, routing.Config{
		Handlers: h,
		Logger:   log.Logger,
		Tracing:  cfg.TracingEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-metrics.StartCollector(gCtx, svc.Stats, cfg.MetricsInterval)
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("address", cfg.Addr).
			Bool("secure_cookies", cfg.SecureCookies).
			Str("advice_language", cfg.AdviceLanguage).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
