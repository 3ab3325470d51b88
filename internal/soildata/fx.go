package soildata

import (
	"github.com/smallbiznis/soildata/internal/soildata/repository"
	"github.com/smallbiznis/soildata/internal/soildata/service"
	"go.uber.org/fx"
)

var Module = fx.Module("soildata.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
