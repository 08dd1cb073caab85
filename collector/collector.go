// Package collector ties the in memory coverage counts to a snapshot file:
// counts are loaded when the collector is created, accumulated while the
// program runs, and written back by Flush.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/egdaemon/soccf"
	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/envx"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/egdaemon/soccf/internal/fsx"
	"github.com/egdaemon/soccf/internal/langx"
	"github.com/egdaemon/soccf/internal/timex"
	"github.com/gofrs/uuid"
)

type Option = func(*Collector)

// OptionPath sets the location of the snapshot file.
func OptionPath(p string) Option {
	return func(c *Collector) {
		c.path = p
	}
}

// OptionCompress enables gzip compression of the snapshot file.
func OptionCompress(b bool) Option {
	return func(c *Collector) {
		c.compress = b
	}
}

// OptionTombstones sets the number of corrupt snapshots preserved by Recover.
func OptionTombstones(n int) Option {
	return func(c *Collector) {
		c.tombstones = n
	}
}

// DefaultPath of the snapshot file, see soccf.EnvCoveragePath.
func DefaultPath() string {
	return envx.String(soccf.DefaultCoveragePath, soccf.EnvCoveragePath)
}

// DefaultCompress see soccf.EnvCoverageCompress.
func DefaultCompress() bool {
	return envx.Boolean(soccf.DefaultCoverageCompress, soccf.EnvCoverageCompress)
}

// DefaultFlushInterval see soccf.EnvCoverageFlushInterval. zero disables
// periodic flushing.
func DefaultFlushInterval() time.Duration {
	return envx.Duration(0, soccf.EnvCoverageFlushInterval)
}

type Collector struct {
	path       string
	compress   bool
	tombstones int
	counter    *coverage.Counter
	flushm     *sync.Mutex
}

func defaults() Collector {
	return Collector{
		path:       DefaultPath(),
		compress:   DefaultCompress(),
		tombstones: 3,
		counter:    coverage.New(),
		flushm:     &sync.Mutex{},
	}
}

// New creates a collector primed with the counts of the existing snapshot.
// a missing snapshot is not an error; a corrupt one is.
func New(options ...Option) (_ *Collector, err error) {
	var (
		s coverage.Snapshot
	)

	c := langx.Clone(defaults(), options...)

	if s, err = snapshot.ReadFile(c.path, c.compress); err != nil {
		return nil, err
	}

	c.counter.Load(s)
	debugx.Println("coverage loaded", c.path, "statements", c.counter.CoveredStatements(), "branches", c.counter.CoveredBranches())

	return &c, nil
}

// Recover creates a collector, discarding prior history when the snapshot can
// not be loaded. a corrupt snapshot is moved aside instead of being replaced
// by the next flush, only the most recent corrupt snapshots are kept.
func Recover(options ...Option) *Collector {
	c, err := New(options...)
	if err == nil {
		return c
	}

	log.Println("unable to load coverage, continuing with empty counts", err)

	empty := langx.Clone(defaults(), options...)
	c = &empty

	if errors.Is(err, snapshot.ErrFormat) {
		tombstone := fmt.Sprintf("%s.corrupted.%s", c.path, uuid.Must(uuid.NewV7()).String())
		if cause := os.Rename(c.path, tombstone); cause != nil {
			errorsx.Log(errorsx.Wrapf(cause, "unable to preserve corrupt coverage: %s", c.path))
		} else {
			log.Println("corrupt coverage preserved", tombstone)
		}

		errorsx.MaybeLog(errorsx.Wrap(prune(c.path, c.tombstones), "unable to prune corrupt coverage"))
	}

	return c
}

func prune(path string, keep int) error {
	stale := fsx.KeepNewestN(keep, fsx.Prefixed(filepath.Dir(path), filepath.Base(path)+".corrupted."))

	errs := []error(nil)
	for p := range stale.Each(context.Background()) {
		debugx.Println("removing corrupt coverage", p)
		errs = append(errs, os.Remove(p))
	}

	return errorsx.Compact(append(errs, stale.Err())...)
}

func (t *Collector) Path() string {
	return t.path
}

func (t *Collector) Compressed() bool {
	return t.compress
}

func (t *Collector) RecordStatement(id coverage.ID) {
	t.counter.RecordStatement(id)
}

func (t *Collector) RecordBranch(id coverage.ID, direction bool) {
	t.counter.RecordBranch(id, direction)
}

func (t *Collector) CoveredStatements() int {
	return t.counter.CoveredStatements()
}

func (t *Collector) CoveredBranches() int {
	return t.counter.CoveredBranches()
}

func (t *Collector) Snapshot() coverage.Snapshot {
	return t.counter.Snapshot()
}

// Flush writes the current counts to the snapshot file.
func (t *Collector) Flush() error {
	t.flushm.Lock()
	defer t.flushm.Unlock()

	s := t.counter.Snapshot()
	if err := snapshot.WriteFile(t.path, t.compress, s); err != nil {
		return errorsx.Wrap(err, "coverage flush failed")
	}

	debugx.Println("coverage flushed", t.path, "statements", len(s.Statements))
	return nil
}

// FlushEvery flushes once per interval until the context is done.
// failures are logged and do not stop the loop.
func (t *Collector) FlushEvery(ctx context.Context, d time.Duration) error {
	return timex.NowAndEvery(ctx, d, func(ctx context.Context) error {
		errorsx.Log(t.Flush())
		return nil
	})
}
