package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/egdaemon/soccf/cmd/cmdopts"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/errorsx"
)

type dump struct {
	Path string `arg:"" name:"path" help:"snapshot file" default:"${vars_snapshot}"`
}

func (t dump) Run(gctx *cmdopts.Global) error {
	if err := required(t.Path); err != nil {
		return err
	}

	s, err := snapshot.ReadFile(t.Path, gctx.Compress)
	if err != nil {
		return err
	}

	if debugx.Enabled() {
		debugx.Println("snapshot", spew.Sdump(s))
	}

	return errorsx.Wrap(snapshot.Encode(os.Stdout, s), "unable to write snapshot")
}
