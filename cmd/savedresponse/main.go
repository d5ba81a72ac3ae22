package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Graceful Shutdown: a pending picker, editor or host call sees ctx cancel
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
