package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/flags"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/service"
	opservice "github.com/mantlenetworkio/mantle-messaging/op-service"
	"github.com/mantlenetworkio/mantle-messaging/op-service/cliapp"
	oplog "github.com/mantlenetworkio/mantle-messaging/op-service/log"
)

var (
	Version   = "v0.0.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := run(ctx, os.Stdout, os.Stderr, os.Args, fromConfig)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx context.Context, w io.Writer, ew io.Writer, args []string, fn service.MainFn) error {
	oplog.SetupDefaults()

	app := cli.NewApp()
	app.Writer = w
	app.ErrWriter = ew
	app.Flags = flags.Flags
	app.Version = opservice.FormatVersion(Version, GitCommit, GitDate, "")
	app.Name = "op-messenger"
	app.Usage = "op-messenger relays and claims cross-chain messages between L1 and L2."
	app.Description = "Cross-chain message ledger.\n" +
		" L1 to L2 messages are claimed once anchored by rolling hash," +
		" L2 to L1 messages with a Merkle inclusion proof."
	app.Action = cliapp.LifecycleCmd(service.Main(app.Version, fn))
	app.Commands = []*cli.Command{
		replayCommand,
		commitmentsCommand,
		proveCommand,
		verifyCommand,
		docCommand,
	}
	return app.RunContext(ctx, args)
}

func fromConfig(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error) {
	return service.FromConfig(ctx, cfg, logger)
}
