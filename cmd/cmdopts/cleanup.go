package cmdopts

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/egdaemon/soccf/internal/errorsx"
)

// Cleanup waits for one of the provided signals or for the context to be done.
// a signal cancels the context with the signal as the cause. cleanup is
// executed in either case.
func Cleanup(ctx context.Context, cancel context.CancelCauseFunc, cleanup func(), sigs ...os.Signal) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, sigs...)
	defer signal.Stop(signals)

	select {
	case <-ctx.Done():
	case s := <-signals:
		log.Println("signal received", s.String())
		cancel(errorsx.Errorf("signal received: %s", s.String()))
	}

	cleanup()
}
