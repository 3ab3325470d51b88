package ratelimit

import (
	"context"

	"github.com/smallbiznis/soildata/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config) (*WriteLimiter, error) {
		limiter, err := NewWriteLimiter(cfg)
		if err != nil || limiter == nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return limiter.Close()
			},
		})
		return limiter, nil
	}),
)
