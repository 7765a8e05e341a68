package main

import (
	"context"
	"os"
	"os/signal"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// trap Ctrl+C and call cancel on the context
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()
	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd(ctx, os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}
