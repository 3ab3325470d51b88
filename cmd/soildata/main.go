package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soildata/internal/clock"
	"github.com/smallbiznis/soildata/internal/config"
	"github.com/smallbiznis/soildata/internal/fleetmetrics"
	"github.com/smallbiznis/soildata/internal/migration"
	"github.com/smallbiznis/soildata/internal/observability"
	"github.com/smallbiznis/soildata/internal/seed"
	"github.com/smallbiznis/soildata/internal/server"
	"github.com/smallbiznis/soildata/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema and optional sample data run before the listener starts.
		migration.Module,
		seed.Module,

		fleetmetrics.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
