package main

import (
	"context"

	"listingscraper/cmd/listingscraper/commands"
	"listingscraper/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
