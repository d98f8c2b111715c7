package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bazarr-bulk/bb/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		logger := config.GetLogger()
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Interrupted")
		} else {
			logger.Error().Err(err).Msg("Run failed")
		}
		os.Exit(1)
	}
}
