// Explorer API server.
//
// Serves the folder tree over HTTP with:
// - PostgreSQL or in-memory node storage
// - Live change events (SSE)
// - Prometheus metrics & structured logging (zap)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/samsirama/windows-explorer-clone/internal/api"
	"github.com/samsirama/windows-explorer-clone/internal/config"
	"github.com/samsirama/windows-explorer-clone/internal/events"
	"github.com/samsirama/windows-explorer-clone/internal/folder"
	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/internal/metadata/memory"
	"github.com/samsirama/windows-explorer-clone/internal/metadata/postgres"
	"github.com/samsirama/windows-explorer-clone/internal/metrics"
	"github.com/samsirama/windows-explorer-clone/internal/seed"
	"github.com/samsirama/windows-explorer-clone/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("explorer server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("store", cfg.StoreBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store metadata.Store
	var pg *postgres.Store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store = memory.New()
	default:
		logging.Info("connecting to PostgreSQL...")
		pg, err = postgres.Connect(ctx, cfg.DatabaseURL, retry.StartupConfig())
		if err != nil {
			logging.Fatal("database connection failed", zap.Error(err))
		}

		migrationsDir := cfg.MigrationsDir
		if migrationsDir == "" {
			migrationsDir = findMigrationsDir()
		}
		if migrationsDir != "" {
			logging.Info("running migrations...", zap.String("dir", migrationsDir))
			if err := pg.Migrate(migrationsDir); err != nil {
				logging.Fatal("migration failed", zap.Error(err))
			}
		}
		store = pg
	}
	defer store.Close()

	if cfg.SeedOnStart != "" {
		seedIfEmpty(ctx, store, cfg.SeedOnStart)
	}

	broadcaster := events.NewBroadcaster()
	folders := folder.NewService(store, broadcaster, cfg.SearchLimit)
	srv := api.NewServer(folders, broadcaster, cfg.CORSOrigins)

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// Event streams never finish on their own.
			httpServer.Close()
		}
		metricsServer.Close()
	}()

	// Start periodic metrics update
	if pg != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					pg.UpdateConnectionMetrics()
				}
			}
		}()
	}

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}

func seedIfEmpty(ctx context.Context, store metadata.Store, mode string) {
	nodes, err := store.ListNodes(ctx)
	if err != nil {
		logging.Fatal("seed check failed", zap.Error(err))
	}
	if len(nodes) > 0 {
		logging.Info("store not empty, skipping seed", zap.Int("nodes", len(nodes)))
		return
	}
	n, err := seed.New(store, nil).Run(ctx, mode)
	if err != nil {
		logging.Fatal("seed failed", zap.String("mode", mode), zap.Error(err))
	}
	logging.Info("store seeded", zap.String("mode", mode), zap.Int("nodes", n))
}

func findMigrationsDir() string {
	candidates := []string{
		"migrations",
		"../migrations",
	}

	exe, _ := os.Executable()
	if exe != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "migrations"))
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
