// seed-tool fills the PostgreSQL node table with a generated sample tree.
//
// It connects with retries, applies migrations and optionally clears the
// table first. Designed to run once as an init container.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metadata/postgres"
	"github.com/samsirama/windows-explorer-clone/internal/seed"
	"github.com/samsirama/windows-explorer-clone/pkg/retry"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seed-tool [flags]\n\n")
		pflag.PrintDefaults()
	}
	dbURL := pflag.StringP("database-url", "d", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	mode := pflag.StringP("mode", "m", seed.ModeStandard, "Tree to generate: standard or massive")
	migrationsDir := pflag.String("migrations", "migrations", "Migrations directory (empty to skip)")
	reset := pflag.BoolP("reset", "r", true, "Delete every node before seeding")
	pflag.Parse()

	if err := logging.Init(logging.Config{Level: "info", Format: "console"}); err != nil {
		panic("logging init: " + err.Error())
	}
	defer logging.Sync()

	if *dbURL == "" {
		pflag.Usage()
		logging.Fatal("database url required (--database-url or DATABASE_URL)")
	}

	ctx := context.Background()
	logging.Info("seed-tool starting...", zap.String("mode", *mode))

	store, err := postgres.Connect(ctx, *dbURL, retry.StartupConfig())
	if err != nil {
		logging.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	if *migrationsDir != "" {
		logging.Info("running migrations...", zap.String("dir", *migrationsDir))
		if err := store.Migrate(*migrationsDir); err != nil {
			logging.Fatal("migration failed", zap.Error(err))
		}
	}

	if *reset {
		n, err := store.DeleteAll(ctx)
		if err != nil {
			logging.Fatal("reset failed", zap.Error(err))
		}
		logging.Info("cleared existing nodes", zap.Int64("count", n))
	}

	n, err := seed.New(store, nil).Run(ctx, *mode)
	if err != nil {
		logging.Fatal("seeding failed", zap.Error(err))
	}
	logging.Info("seeding complete", zap.Int("nodes", n))
}
