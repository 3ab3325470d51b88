package fleetmetrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("fleet.metrics",
	fx.Provide(newWorker),
	fx.Invoke(func(lc fx.Lifecycle, w *Worker) {
		if w == nil {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				w.Start()
				return nil
			},
			OnStop: w.Stop,
		})
	}),
)

// newWorker returns nil when fleet metrics are disabled or misconfigured.
func newWorker(cfg config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) *Worker {
	if !cfg.Fleet.Enabled {
		return nil
	}

	environment := strings.TrimSpace(cfg.Environment)
	pusher, err := NewPusher(cfg.Fleet, cfg.AppName, map[string]string{
		"environment": environment,
	})
	if err != nil {
		log.Warn("fleet metrics disabled", zap.Error(err))
		return nil
	}

	gauges := NewGauges(prometheus.Labels{
		"service":     cfg.AppName,
		"version":     cfg.AppVersion,
		"environment": environment,
	})
	return NewWorker(db, gauges, pusher, clk, cfg.Fleet.Interval, log)
}
