// Package debugx provides logging that is only emitted when debug logging is enabled.
package debugx

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/egdaemon/soccf"
	"github.com/egdaemon/soccf/internal/envx"
)

var enabled atomic.Bool

func init() {
	enabled.Store(envx.Boolean(false, soccf.EnvLogsDebug))
}

// Enable toggles debug logging at runtime, returns the previous setting.
func Enable(b bool) bool {
	return enabled.Swap(b)
}

func Enabled() bool {
	return enabled.Load()
}

func Println(args ...any) {
	if !enabled.Load() {
		return
	}

	_ = log.Output(2, fmt.Sprintln(args...))
}

func Printf(format string, args ...any) {
	if !enabled.Load() {
		return
	}

	_ = log.Output(2, fmt.Sprintf(format, args...))
}
