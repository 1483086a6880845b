package main

import (
	"context"
	"medharvest-backend/cmd/harvest-cli/commands"
	"medharvest-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "harvest-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
