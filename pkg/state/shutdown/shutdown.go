package shutdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shmchat/pkg/state/logger"
)

// swapped in tests
var exit = os.Exit
var stderr io.Writer = os.Stderr

// Abort logs a fatal startup error, prints it to stderr and exits 1.
func Abort(contextMsg string, err error) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", contextMsg, err)
	} else {
		fmt.Fprintln(stderr, contextMsg)
	}
	exit(1)
}

// SetupSignalHandler returns a context that is cancelled on SIGINT or
// SIGTERM. The cancel function stops watching and releases the handler.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// handle interrupt/terminate for graceful shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigc)
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
