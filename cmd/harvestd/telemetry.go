package main

import (
	"context"

	"medharvest-backend/lib/restyutil"
	"medharvest-backend/lib/telemetry"
	"medharvest-backend/lib/util/serviceutil"
	"medharvest-backend/services/orchestrator/httpengine"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	t, err := telemetry.SetupFromEnv(ctx, "harvestd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		t.Shutdown(context.Background())
	}()

	telemetry.InstrumentPerfStats(ctx)

	if verbose {
		httpengine.SetDebugOutput(
			restyutil.NewFilesystemOutput("resty_debug/httpengine"),
		)
	}
}
