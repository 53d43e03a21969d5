package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/crowngraphics/portal/internal/migration"
	"github.com/crowngraphics/portal/internal/observability"
	"github.com/crowngraphics/portal/internal/scheduler"
	"github.com/crowngraphics/portal/internal/server"
	"github.com/crowngraphics/portal/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// HTTP server pulls in the domain modules
		server.Module,

		// Schema and first admin run before the server starts listening
		migration.Module,
		scheduler.Module,
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
