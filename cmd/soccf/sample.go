package main

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/egdaemon/soccf/cmd/cmdopts"
	"github.com/egdaemon/soccf/internal/config"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/egdaemon/soccf/sampler"
)

type sample struct {
	Config string `name:"config" help:"sampler configuration file" type:"existingfile" required:""`
}

func (t sample) Run(gctx *cmdopts.Global) (err error) {
	cfg, err := config.Load(t.Config)
	if err != nil {
		return err
	}
	debugx.Println("sampler configuration", spew.Sdump(cfg))

	s := sampler.New(cfg.Period)
	defer func() { errorsx.Log(errorsx.Wrap(s.Close(), "unable to close sample logs")) }()

	for _, src := range cfg.Sources {
		if err = s.Add(sampler.File(src.Snapshot, src.Compressed(gctx.Compress)), src.Output); err != nil {
			return err
		}
	}

	return s.Run(gctx.Context)
}
