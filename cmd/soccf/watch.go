package main

import (
	"os"
	"path/filepath"

	"github.com/egdaemon/soccf/cmd/cmderrors"
	"github.com/egdaemon/soccf/cmd/cmdopts"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/fsnotify/fsnotify"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

type watch struct {
	Path string `arg:"" name:"path" help:"snapshot file" default:"${vars_snapshot}"`
}

func (t watch) Run(gctx *cmdopts.Global) (err error) {
	var (
		pending *fsnotify.Watcher
	)

	path := filepath.Clean(t.Path)
	au := aurora.NewAurora(isatty.IsTerminal(os.Stdout.Fd()))
	display := func() {
		r, err := load(path, gctx.Compress)
		if cmderrors.LogCause(err) != nil {
			return
		}

		errorsx.MaybeLog(r.Fprintln(os.Stdout, au))
	}

	if pending, err = fsnotify.NewWatcher(); err != nil {
		return errorsx.Wrap(err, "failed to watch snapshot")
	}
	defer func() { errorsx.Log(errorsx.Wrap(pending.Close(), "failed to close fs watch")) }()

	// snapshots are replaced by rename, watching the file itself would lose the watch.
	if err = pending.Add(filepath.Dir(path)); err != nil {
		return errorsx.Wrapf(err, "failed to watch snapshot directory: %s", filepath.Dir(path))
	}

	display()

	for {
		select {
		case evt := <-pending.Events:
			if filepath.Clean(evt.Name) != path || !evt.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}

			debugx.Println("snapshot modified", evt)
			display()
		case cause := <-pending.Errors:
			errorsx.Log(errorsx.Wrap(cause, "watch failed"))
		case <-gctx.Context.Done():
			return nil
		}
	}
}
