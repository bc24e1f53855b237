package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/padhaiwithai/student-logins/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd, opts := newRootCmd()
	if err := runRoot(ctx, cmd, opts); err != nil {
		logger.LogError("student-logins failed", err)
		cancel()
		os.Exit(1)
	}
}
