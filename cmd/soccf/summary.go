package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/alitto/pond/v2"
	"github.com/dustin/go-humanize"
	"github.com/egdaemon/soccf/cmd/cmdopts"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

type report struct {
	path       string
	statements int
	branches   int
}

// required rejects snapshot paths that do not exist. ReadFile treats a
// missing snapshot as empty, which hides typos on the command line.
func required(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return errorsx.UserFriendly(errorsx.Errorf("snapshot not found: %s", path))
		} else if err != nil {
			return errorsx.Wrapf(err, "unable to stat snapshot: %s", path)
		}
	}

	return nil
}

func load(path string, compress bool) (report, error) {
	s, err := snapshot.ReadFile(path, compress)
	if err != nil {
		return report{}, err
	}

	return report{path: path, statements: len(s.Statements), branches: len(s.Branches())}, nil
}

func (t report) Fprintln(dst io.Writer, au aurora.Aurora) error {
	_, err := fmt.Fprintf(
		dst,
		"%s statements %s branches %s\n",
		au.Bold(t.path),
		au.Green(humanize.Comma(int64(t.statements))),
		au.Green(humanize.Comma(int64(t.branches))),
	)
	return err
}

type summary struct {
	Paths       []string `arg:"" name:"path" help:"snapshot files" default:"${vars_snapshot}"`
	Concurrency int      `help:"number of snapshots loaded concurrently" default:"${vars_concurrency}"`
}

func (t summary) Run(gctx *cmdopts.Global) error {
	if err := required(t.Paths...); err != nil {
		return err
	}

	pool := pond.NewResultPool[report](max(t.Concurrency, 1), pond.WithContext(gctx.Context))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, path := range t.Paths {
		group.SubmitErr(func() (report, error) {
			return load(path, gctx.Compress)
		})
	}

	reports, err := group.Wait()
	if err != nil {
		return errorsx.Wrap(err, "unable to summarize snapshots")
	}

	au := aurora.NewAurora(isatty.IsTerminal(os.Stdout.Fd()))
	for _, r := range reports {
		if err = r.Fprintln(os.Stdout, au); err != nil {
			return err
		}
	}

	return nil
}
