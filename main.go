// mull - a write-only throughput sink.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mull/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mull: %v\n", err)
		os.Exit(1)
	}
}
