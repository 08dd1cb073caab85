package main

import (
	"context"
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/egdaemon/soccf/cmd/cmderrors"
	"github.com/egdaemon/soccf/cmd/cmdopts"
	"github.com/egdaemon/soccf/collector"
	"github.com/egdaemon/soccf/internal/debugx"
	"github.com/willabides/kongplete"
)

func main() {
	var shellcli struct {
		cmdopts.Global
		Version            cmdopts.Version              `cmd:"" help:"display versioning information"`
		Summary            summary                      `cmd:"" help:"display the covered statements and branches of snapshots"`
		Dump               dump                         `cmd:"" help:"write the decoded snapshot to stdout"`
		Watch              watch                        `cmd:"" help:"display the summary of a snapshot every time it is flushed"`
		Sample             sample                       `cmd:"" help:"periodically append coverage summaries to log files"`
		InstallCompletions kongplete.InstallCompletions `cmd:"" help:"install shell completions"`
	}

	var (
		err error
		ctx *kong.Context
	)

	shellcli.Cleanup = &sync.WaitGroup{}
	shellcli.Context, shellcli.Shutdown = context.WithCancelCause(context.Background())
	log.SetFlags(log.Lshortfile | log.LUTC | log.Ltime)

	shellcli.Cleanup.Add(1)
	go func() {
		defer shellcli.Cleanup.Done()
		cmdopts.Cleanup(shellcli.Context, shellcli.Shutdown, func() {
			debugx.Println("waiting for systems to shutdown")
		}, os.Interrupt)
	}()

	parser := kong.Must(
		&shellcli,
		kong.Name("soccf"),
		kong.Description("inspect and sample soccf coverage snapshots"),
		kong.Vars{
			"vars_compress":    strconv.FormatBool(collector.DefaultCompress()),
			"vars_snapshot":    collector.DefaultPath(),
			"vars_concurrency": strconv.Itoa(runtime.NumCPU()),
		},
		kong.UsageOnError(),
		kong.Bind(
			&shellcli.Global,
		),
	)

	kongplete.Complete(
		parser,
	)

	if ctx, err = parser.Parse(os.Args[1:]); err != nil {
		log.Println(cmderrors.Sprint(err))
		os.Exit(1)
	}

	if shellcli.Verbosity > 0 {
		debugx.Enable(true)
	}

	if err = ctx.Run(); err != nil {
		log.Println(cmderrors.Sprint(err))
		os.Exit(1)
	}

	debugx.Println("shutting down")
	shellcli.Shutdown(nil)
	shellcli.Cleanup.Wait()
}
