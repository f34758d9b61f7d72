package main

import (
	"streamstats-backend/cmd/streamstats/commands"
	"streamstats-backend/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
