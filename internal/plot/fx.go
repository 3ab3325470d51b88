package plot

import (
	"github.com/smallbiznis/soildata/internal/plot/repository"
	"github.com/smallbiznis/soildata/internal/plot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewDirectory),
)
