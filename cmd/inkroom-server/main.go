// Package main provides the entry point for inkroom-server.
//
// inkroom-server is the realtime sync server for collaborative drawing
// rooms: it keeps each room's event log in memory, fans events out to
// the room's WebSocket peers, and snapshots room state to disk.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/infra/buildinfo"
	"github.com/inkroom-io/inkroom-go/internal/infra/confloader"
	"github.com/inkroom-io/inkroom-go/internal/infra/shutdown"
	"github.com/inkroom-io/inkroom-go/internal/server/config"
	"github.com/inkroom-io/inkroom-go/internal/server/httpserver"
	"github.com/inkroom-io/inkroom-go/internal/server/wsserver"
	"github.com/inkroom-io/inkroom-go/internal/storage"
	"github.com/inkroom-io/inkroom-go/internal/storage/snapshot"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
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
		fmt.Printf("inkroom-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting inkroom-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", *configFile)

	met := metric.New()

	engine, err := initStorage(cfg, log, met)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	rooms := service.NewRoomService(service.Config{
		Engine:  engine,
		Logger:  log,
		Metrics: met,
	})

	ws := wsserver.NewHandler(wsserver.Config{
		Service:    rooms,
		Logger:     log,
		Metrics:    met,
		SendBuffer: cfg.Sync.SendBuffer,
	})

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		RoomService: rooms,
		WSHandler:   ws,
		Metrics:     met,
		Logger:      log,
		StaticDir:   cfg.Server.StaticDir,
		RateLimit:   cfg.Server.RateLimit,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	watcher, err := watchConfig(*configFile, log)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})
	if watcher != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}
	// Last hook: flush dirty rooms once no more events can arrive.
	shutdownHandler.OnShutdown(func(context.Context) error {
		log.Info("flushing rooms and closing storage")
		return engine.Close()
	})

	// Bind synchronously so a taken port fails startup instead of
	// logging from a goroutine after startup was reported.
	ln, err := httpServer.Listen()
	if err != nil {
		engine.Close()
		return fmt.Errorf("bind %s: %w", cfg.Server.HTTP.Addr, err)
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
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

// initStorage builds the snapshot store and the engine over it.
func initStorage(cfg *config.ServerConfig, log logger.Logger, met *metric.Metrics) (*storage.Engine, error) {
	var key []byte
	if cfg.Storage.EncryptionKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decode encryption key: %w", err)
		}
		key = decoded
	}

	snaps, err := snapshot.New(snapshot.Config{
		Dir:           cfg.Storage.DataDir,
		Backend:       cfg.Storage.Backend,
		EncryptionKey: key,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	return storage.NewEngine(storage.EngineConfig{
		Snapshots:    snaps,
		SaveInterval: cfg.Sync.SaveInterval,
		Logger:       log,
		Metrics:      met,
	}), nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart; the log level is the one worth flipping on a
// live server.
func watchConfig(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	if configFile == "" {
		return nil, nil
	}

	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			log.Info("log level changed", "level", cfg.Log.Level)
			logger.SetLevel(cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
