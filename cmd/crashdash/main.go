// Command crashdash harmonizes traffic accident exports and prints filtered
// records and aggregates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crashdash/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "crashdash:", err)
	}
	code := cli.GetExitCode(err)
	stop()
	os.Exit(code)
}
