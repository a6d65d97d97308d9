package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/caliberhq/caliper/internal/cli"
	"github.com/caliberhq/caliper/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		_ = logger.Sync()
	}()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("caliper: " + err.Error() + "\n")
		return 1
	}
	return 0
}
