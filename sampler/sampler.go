// Package sampler periodically appends the covered statement and branch
// counts of a set of reporters to log files, one decimal count per line.
package sampler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/egdaemon/soccf"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/envx"
	"github.com/egdaemon/soccf/internal/errorsx"
	"golang.org/x/time/rate"
)

// Reporter exposes the coverage summary of a collector.
type Reporter interface {
	CoveredStatements() int
	CoveredBranches() int
}

type refresher interface {
	Refresh() error
}

// DefaultPeriod see soccf.EnvSamplePeriod.
func DefaultPeriod() time.Duration {
	return envx.Duration(time.Second, soccf.EnvSamplePeriod)
}

type entry struct {
	Reporter
	prefix string
	stmt   *os.File
	br     *os.File
}

type Sampler struct {
	period  time.Duration
	m       sync.Mutex
	entries []entry
}

// New sampler, a non positive period uses DefaultPeriod.
func New(period time.Duration) *Sampler {
	if period <= 0 {
		period = DefaultPeriod()
	}

	return &Sampler{period: period}
}

func (t *Sampler) Period() time.Duration {
	return t.period
}

// Add a reporter whose counts are appended to <prefix>.stmt and <prefix>.br.
func (t *Sampler) Add(r Reporter, prefix string) (err error) {
	var (
		stmt, br *os.File
	)

	if stmt, err = appendonly(prefix + ".stmt"); err != nil {
		return err
	}

	if br, err = appendonly(prefix + ".br"); err != nil {
		return errorsx.Compact(err, stmt.Close())
	}

	t.m.Lock()
	defer t.m.Unlock()
	t.entries = append(t.entries, entry{Reporter: r, prefix: prefix, stmt: stmt, br: br})

	return nil
}

// Sample every reporter once.
func (t *Sampler) Sample() error {
	t.m.Lock()
	defer t.m.Unlock()

	errs := make([]error, 0, len(t.entries))
	for _, e := range t.entries {
		errs = append(errs, e.sample())
	}

	return errorsx.Compact(errs...)
}

// Run samples immediately and then once per period until the context is done.
func (t *Sampler) Run(ctx context.Context) error {
	r := rate.NewLimiter(rate.Every(t.period), 1)

	for err := r.Wait(ctx); err == nil; err = r.Wait(ctx) {
		if cause := t.Sample(); cause != nil {
			log.Println("coverage sample failed", cause)
		}
	}

	debugx.Println("sampler stopped", ctx.Err())
	return nil
}

// Close the log files of every reporter.
func (t *Sampler) Close() error {
	t.m.Lock()
	defer t.m.Unlock()

	errs := make([]error, 0, 2*len(t.entries))
	for _, e := range t.entries {
		errs = append(errs, e.stmt.Close(), e.br.Close())
	}
	t.entries = nil

	return errorsx.Compact(errs...)
}

func (t entry) sample() error {
	if r, ok := t.Reporter.(refresher); ok {
		if err := r.Refresh(); err != nil {
			return errorsx.Wrapf(err, "unable to refresh reporter: %s", t.prefix)
		}
	}

	if _, err := fmt.Fprintf(t.stmt, "%d\n", t.CoveredStatements()); err != nil {
		return errorsx.Wrapf(err, "unable to record statement sample: %s", t.stmt.Name())
	}

	if _, err := fmt.Fprintf(t.br, "%d\n", t.CoveredBranches()); err != nil {
		return errorsx.Wrapf(err, "unable to record branch sample: %s", t.br.Name())
	}

	return nil
}

func appendonly(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	return f, errorsx.Wrapf(err, "unable to open sample log: %s", path)
}
