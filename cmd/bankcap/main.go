package main

import (
	"context"

	"bankcap-etl/cmd/bankcap/commands"
	"bankcap-etl/lib/serviceutil"
	"bankcap-etl/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	err := telemetry.SetupFromEnv(ctx, "bankcap")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
