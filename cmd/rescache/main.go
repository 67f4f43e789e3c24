// Package main implements the RapidEx category cache daemon: a bounded
// TTL cache with priority-aware eviction, tag invalidation, and durable
// state, exposed over a small JSON HTTP API with Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rapidex/rescache/cache"
	"github.com/rapidex/rescache/metric"
	"github.com/rapidex/rescache/storage"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "rescache"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cacheCfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	c, registry, err := setupCache(ctx, cliCfg, cacheCfg)
	if err != nil {
		return err
	}

	handler := newServer(c, registry.Handler(), slog.Default())
	return runWithSignalHandling(ctx, cliCfg, c, handler)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting rescache (category cache daemon)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// initializeConfiguration loads the cache configuration. Without a config
// file the profile is selected from machine capabilities.
func initializeConfiguration(cliCfg *CLIConfig) (cache.Config, error) {
	if cliCfg.ConfigPath == "" {
		cfg := cache.ProfileFor(cache.SystemCapabilities())
		slog.Info("No config file; selected machine profile", "max_size", cfg.MaxSize)
		if cliCfg.Debug {
			cfg.Debug = true
		}
		return cfg, nil
	}

	data, err := os.ReadFile(cliCfg.ConfigPath)
	if err != nil {
		return cache.Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, result, err := cache.FromYAML(data)
	if err != nil {
		return cache.Config{}, fmt.Errorf("load config: %w", err)
	}
	for _, warning := range result.Warnings {
		slog.Warn("Config value clamped", "warning", warning)
	}

	if cliCfg.Debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// setupCache builds the metrics registry, storage backend, and cache.
func setupCache(
	ctx context.Context,
	cliCfg *CLIConfig,
	cacheCfg cache.Config,
) (*cache.Cache[json.RawMessage], *metric.MetricsRegistry, error) {
	registry := metric.NewMetricsRegistry()

	options := []cache.Option[json.RawMessage]{
		cache.WithMetrics[json.RawMessage](registry, "daemon"),
	}

	if cacheCfg.PersistToStorage {
		store, err := storage.NewFileStore(cliCfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open state dir: %w", err)
		}
		options = append(options, cache.WithStore[json.RawMessage](store))
		slog.Info("Persistence enabled", "state_dir", cliCfg.StateDir, "storage_key", cacheCfg.StorageKey)
	}

	c, err := cache.New[json.RawMessage](ctx, cacheCfg, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("create cache: %w", err)
	}

	slog.Info("Cache ready",
		"max_size", cacheCfg.MaxSize,
		"strategy", string(cacheCfg.EvictionStrategy),
		"default_ttl", cacheCfg.DefaultTTL,
		"restored_entries", c.Size())

	return c, registry, nil
}

// runWithSignalHandling serves HTTP until a shutdown signal arrives, then
// drains the server and closes the cache (flushing persisted state).
func runWithSignalHandling(
	ctx context.Context,
	cliCfg *CLIConfig,
	c *cache.Cache[json.RawMessage],
	handler http.Handler,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cliCfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("HTTP API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		_ = c.Close()
		return fmt.Errorf("http server: %w", err)
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}

	slog.Info("rescache shutdown complete")
	return nil
}
