package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/awnumar/memguard"
	"github.com/effective-security/xcsr/cmd/xcsr-tool/cli"
	"github.com/effective-security/xcsr/internal/version"
	"github.com/effective-security/xcsr/x/ctl"
)

type app struct {
	cli.Cli

	Ensure cli.EnsureCmd `cmd:"" help:"Ensure the certificate request exists and matches the private key"`
	Remove cli.RemoveCmd `cmd:"" help:"Remove the certificate request"`
	Verify cli.VerifyCmd `cmd:"" help:"Verify the certificate request is signed by the private key"`
	Apply  cli.ApplyCmd  `cmd:"" help:"Reconcile certificate requests of a manifest"`
	Info   cli.InfoCmd   `cmd:"" help:"Print certificate request info"`
}

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("xcsr-tool"),
		kong.Description("Declarative management of certificate requests"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
