package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SIGINT and SIGTERM flow into the command context, so a shutdown during
// an injection run halts between keystrokes instead of mid-field.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
