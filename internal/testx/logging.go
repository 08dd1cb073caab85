package testx

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/mattn/go-isatty"
)

// Logging enable logging if stdout terminal is a tty.
// generally this means run the ginkgo without the -p (parallel) option.
func Logging() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.LUTC)
	log.SetOutput(os.Stderr)

	if isatty.IsTerminal(os.Stdout.Fd()) {
		return
	}

	log.SetOutput(io.Discard)
}

// Context bound to the test deadline, or a minute when the test has none.
func Context(t testing.TB) (context.Context, context.CancelFunc) {
	if dt, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if deadline, ok := dt.Deadline(); ok {
			return context.WithDeadline(context.Background(), deadline)
		}
	}

	return context.WithTimeout(context.Background(), time.Minute)
}
