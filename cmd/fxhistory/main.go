package main

import (
	"context"

	"fxhistory-backend/cmd/fxhistory/commands"
	"fxhistory-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.SetupFromEnv(ctx, "fxhistory")
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
