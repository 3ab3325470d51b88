package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) {
		if !cfg.SeedSampleData {
			return
		}
		seeder := NewSeeder(db, genID, clk, nil, log)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				_, err := seeder.EnsureSampleData(ctx)
				return err
			},
		})
	}),
)
