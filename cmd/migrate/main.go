package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chantier/avancement/internal/config"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/samber/lo"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// migrations are applied explicitly below
	cfg.Postgres.AutoMigrate = false

	logger.Infow("connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *dryRun {
		pending, err := db.PendingMigrations(ctx)
		if err != nil {
			logger.Fatalw("failed to list pending migrations", "error", err)
		}
		logger.Infow("dry run, nothing applied",
			"pending", lo.Map(pending, func(m postgres.Migration, _ int) string { return m.Version }),
		)
		for _, m := range pending {
			fmt.Printf("-- %s\n%s\n", m.Version, m.SQL)
		}
		return
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		logger.Fatalw("migration failed", "applied", applied, "error", err)
	}
	logger.Infow("migration completed", "applied", applied)
}
