// Package main provides the entry point for cachemesh-server.
//
// cachemesh-server is a small network-accessible key-value store used to
// share ephemeral session state across process boundaries. It serves one
// dispatch endpoint over any number of isolated named store instances,
// each backed by a persistent or in-memory engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/cachemesh-go/internal/infra/buildinfo"
	"github.com/yndnr/cachemesh-go/internal/infra/confloader"
	"github.com/yndnr/cachemesh-go/internal/infra/shutdown"
	"github.com/yndnr/cachemesh-go/internal/registry"
	"github.com/yndnr/cachemesh-go/internal/server/config"
	"github.com/yndnr/cachemesh-go/internal/server/httpserver"
	"github.com/yndnr/cachemesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/cachemesh-go/internal/telemetry/logger"
	"github.com/yndnr/cachemesh-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cachemesh-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	log.Info("starting cachemesh-server",
		"version", buildinfo.Version(),
		"config", *configFile)

	// Build the instance registry from configuration. A duplicate or
	// unopenable instance is fatal at startup, never at request time.
	reg := registry.New(log)
	metrics := metric.NewCollector()
	for _, inst := range cfg.Instances {
		_, err := reg.Create(inst.InstanceID, registry.Options{
			CacheOnDisk:  inst.CacheOnDisk,
			CachePath:    inst.CachePath,
			MaxStoreTime: inst.MaxStoreTime,
		})
		if err != nil {
			reg.Destroy()
			return fmt.Errorf("create instance %q: %w", inst.InstanceID, err)
		}
		metrics.InstancesRegistered.Inc()
	}

	httpHandler := httpserver.Chain(
		handler.New(reg, metrics, log),
		httpserver.Recover(log),
		httpserver.RequestID(),
		httpserver.AccessLog(log),
		httpserver.RateLimit(cfg.Server.HTTP.RateLimit, cfg.Server.HTTP.RateBurst),
	)
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpHandler)

	// Hot-reload the log level when the config file changes.
	if *configFile != "" {
		if err := watchLogLevel(*configFile, log); err != nil {
			log.Warn("config watcher unavailable", "error", err)
		}
	}

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Reverse order of startup: stop accepting requests before the
	// engines are flushed and closed.
	shutdownHandler.OnShutdown(func(_ context.Context) error {
		log.Info("closing store instances")
		return reg.Destroy()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()

	waitErrCh := make(chan error, 1)
	go func() {
		waitErrCh <- shutdownHandler.Wait()
	}()

	select {
	case err := <-serveErrCh:
		// Bind failure (permission, address in use) or serve fault:
		// fatal, no retry.
		reg.Destroy()
		return fmt.Errorf("http server: %w", err)
	case err := <-waitErrCh:
		if err != nil {
			log.Error("shutdown error", "error", err)
			return err
		}
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchLogLevel re-reads the config file on change and applies its log
// level. Only the level is hot-reloadable; everything else needs a
// restart.
func watchLogLevel(configFile string, log *slog.Logger) error {
	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return err
	}
	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return err
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(configFile)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.Level() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})

	watcher.StartAsync()
	return nil
}
