package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/threatmap/threatmap/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Ctrl-C and SIGTERM cancel the context; commands unwind through it so
	// clones and uploads stop cleanly instead of being killed mid-write.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cli.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130 // 128 + SIGINT, the shell convention for interrupted runs
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
