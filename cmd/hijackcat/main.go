// Command hijackcat reads a handshake off stdin with hijackstream and copies
// the remainder to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hijackcat: %v\n", err)
		stop()
		os.Exit(1)
	}
}
