package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGTERM, syscall.SIGINT)

	return gracefulShutdown
}

// ListenForShutdown blocks until SIGINT/SIGTERM arrives or ctx is done, runs
// signalHandler and then gives in-flight work timeToWait to drain.
func ListenForShutdown(
	ctx context.Context,
	signalChan chan os.Signal,
	signalHandler func(),
	timeToWait time.Duration,
	l *zap.Logger,
) {
	select {
	case sig := <-signalChan:
		l.Sugar().Infow("Caught signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		l.Sugar().Infow("Context done, shutting down")
	}

	signalHandler()

	if timeToWait > 0 {
		l.Sugar().Infow("Waiting before exit", zap.Duration("wait", timeToWait))
		time.Sleep(timeToWait)
	}
	l.Sugar().Infow("Exiting")
}
