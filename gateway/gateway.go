// Package gateway is the process wide entry point for instrumented code.
//
// Instrumented call sites invoke Stmt and Branch; both dispatch to the current
// collector. The default collector is created from the environment on first
// use, see collector.DefaultPath, collector.DefaultCompress and
// collector.DefaultFlushInterval.
package gateway

import (
	"context"
	"sync"

	"github.com/egdaemon/soccf/collector"
	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/errorsx"
)

type Collector interface {
	RecordStatement(id coverage.ID)
	RecordBranch(id coverage.ID, direction bool)
}

type flusher interface {
	Flush() error
}

var (
	m           sync.RWMutex
	current     Collector
	initialized bool
	stop        = func() {}
)

// Get the current collector, initializing the default collector if no
// collector has been set.
func Get() Collector {
	m.RLock()
	c, ok := current, initialized
	m.RUnlock()

	if ok {
		return c
	}

	m.Lock()
	defer m.Unlock()

	if !initialized {
		current, stop = background(collector.Recover())
		initialized = true
	}

	return current
}

// background flushes the default collector periodically, the returned func
// stops flushing and blocks until any flush in progress completes.
func background(c *collector.Collector) (*collector.Collector, func()) {
	d := collector.DefaultFlushInterval()
	if d <= 0 {
		return c, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		errorsx.Log(c.FlushEvery(ctx, d))
	}()

	return c, func() {
		cancel()
		<-done
	}
}

// Set replaces the current collector and returns the previous one.
// periodic flushing of the default collector stops before the swap.
// a nil collector disables recording.
func Set(c Collector) (previous Collector) {
	m.Lock()
	defer m.Unlock()

	stop()
	previous, current, initialized, stop = current, c, true, func() {}
	return previous
}

// Stmt records a statement hit.
func Stmt(id coverage.ID) {
	if c := Get(); c != nil {
		c.RecordStatement(id)
	}
}

// Branch records the direction taken by a branch and returns it, allowing the
// call to wrap the branch condition in place.
func Branch(id coverage.ID, direction bool) bool {
	if c := Get(); c != nil {
		c.RecordBranch(id, direction)
	}

	return direction
}

// Flush the current collector if it supports flushing.
func Flush() error {
	m.RLock()
	c := current
	m.RUnlock()

	if f, ok := c.(flusher); ok {
		return f.Flush()
	}

	return nil
}

// Main runs r and flushes the current collector once it completes.
// intended for wrapping *testing.M within TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(gateway.Main(m))
//	}
func Main(r interface{ Run() int }) int {
	code := r.Run()

	if err := Flush(); err != nil {
		errorsx.Log(errorsx.Wrap(err, "unable to persist coverage"))
		if code == 0 {
			code = 1
		}
	} else {
		debugx.Println("coverage persisted")
	}

	return code
}
