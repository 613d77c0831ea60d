// Package cli holds the shared start-up helpers and terminal rendering
// used by cmd/fintrack and cmd/fintrack-monitor.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/receipt"
	"fintrack/internal/services"

	"github.com/joho/godotenv"
)

// SetupLogger builds the process logger at the given level, writing to
// out, and installs it as the slog default.
func SetupLogger(level, component string, out io.Writer) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: component, Output: out})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads and validates the environment configuration and the
// scoring file it points to.
func LoadConfig() (*config.Config, config.Scoring, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, config.Scoring{}, err
	}
	scoring, err := config.LoadScoring(cfg.ScoringConfigPath)
	if err != nil {
		return nil, config.Scoring{}, err
	}
	return cfg, scoring, nil
}

// InitBackend opens the record store selected by DATA_BACKEND.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.Result, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bc)
}

// InitScanner wires image loading, Gemini recognition behind an LRU cache
// and field extraction. The returned func releases the storage client.
func InitScanner(ctx context.Context, logger *log.Logger, cfg *config.Config) (*receipt.Scanner, func() error, error) {
	recognizer, err := receipt.NewGeminiRecognizer(ctx, cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("init recognizer: %w", err)
	}

	// gs:// support is optional; local paths still work without credentials.
	var objects receipt.ObjectReader
	closeFn := func() error { return nil }
	if gcs, err := receipt.NewGCSReader(ctx); err != nil {
		logger.Warn("cloud storage unavailable, gs:// receipts disabled", log.FieldError, err)
	} else {
		objects = gcs
		closeFn = gcs.Close
	}

	results := cache.NewLRUCache[string](cfg.ReceiptCacheSize, cfg.ReceiptCacheTTL)
	scanner := receipt.NewScanner(
		receipt.NewSource(objects),
		receipt.NewCachedRecognizer(recognizer, results),
		receipt.NewExtractor(),
	)
	return scanner, closeFn, nil
}

// NewEngine builds the engine over an opened backend.
func NewEngine(store backend.Backend, scoring config.Scoring, logger *log.Logger, opts ...services.Option) *services.Engine {
	opts = append([]services.Option{services.WithLogger(logger)}, opts...)
	return services.NewEngine(store, scoring, opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM and a
// channel closed once cleanup has run or timeout has elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
