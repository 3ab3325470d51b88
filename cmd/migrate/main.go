package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/smallbiznis/soildata/internal/config"
	"github.com/smallbiznis/soildata/internal/migration"
	"github.com/smallbiznis/soildata/internal/observability"
	"github.com/smallbiznis/soildata/internal/observability/logger"
	"github.com/smallbiznis/soildata/pkg/db"
	"go.uber.org/zap"
)

// migrate applies the embedded postgres migrations without starting the API.
//
//	migrate            apply pending migrations
//	migrate -down 1    roll back the latest migration
func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of applying")
	flag.Parse()

	cfg := config.Load()
	obsCfg := observability.LoadConfig(cfg)
	log, err := logger.New(nil, logger.Config{
		ServiceName: obsCfg.ServiceName + "-migrate",
		Environment: obsCfg.Environment,
		Version:     obsCfg.Version,
		Level:       obsCfg.LogLevel,
		Format:      obsCfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(db.ConfigFrom(cfg), *down, log); err != nil {
		log.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg db.Config, down int, log *zap.Logger) error {
	if !strings.EqualFold(strings.TrimSpace(cfg.Type), db.TypePostgres) {
		return fmt.Errorf("standalone migrations require DATABASE_TYPE=%s, got %q", db.TypePostgres, cfg.Type)
	}

	sqlDB, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if down > 0 {
		if err := migration.RollbackMigrations(sqlDB, down); err != nil {
			return err
		}
		log.Info("migrations rolled back", zap.Int("steps", down))
		return nil
	}

	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied", zap.String("database", cfg.Name))
	return nil
}
