// cmd/fieldcheck/main.go
//
// Entry point for the fieldcheck CLI. Everything lives in internal/cli;
// this only wires interrupts into the command context and turns the
// result into an exit code.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kingrea/fieldcheck/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
