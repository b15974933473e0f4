package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/himarplupi/bot-himarpl/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(config.Load).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
