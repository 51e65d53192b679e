package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	oplog "github.com/mantlenetworkio/mantle-messaging/op-service/log"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
	oprpc "github.com/mantlenetworkio/mantle-messaging/op-service/rpc"
)

const EnvVarPrefix = "OP_MESSENGER"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	DataDirFlag = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "Directory of the ledger database",
		EnvVars: prefixEnvVars("DATADIR"),
	}
	InMemoryFlag = &cli.BoolFlag{
		Name:    "in-memory",
		Usage:   "Run on an in-memory ledger that is lost on shutdown",
		EnvVars: prefixEnvVars("IN_MEMORY"),
	}
	ProtocolConfigFlag = &cli.StringFlag{
		Name:    "protocol.config",
		Usage:   "TOML file with protocol parameters (max-calldata-size, max-leaves-per-tree, tree-cache-size)",
		EnvVars: prefixEnvVars("PROTOCOL_CONFIG"),
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	DataDirFlag,
	InMemoryFlag,
	ProtocolConfigFlag,
}

func init() {
	optionalFlags = append(optionalFlags, oprpc.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(Flags, requiredFlags...)
	Flags = append(Flags, optionalFlags...)
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

func ConfigFromCLI(ctx *cli.Context, version string) (*config.Config, error) {
	if err := CheckRequired(ctx); err != nil {
		return nil, err
	}
	protocol, err := config.LoadProtocol(ctx.String(ProtocolConfigFlag.Name))
	if err != nil {
		return nil, err
	}
	return &config.Config{
		Version:       version,
		LogConfig:     oplog.ReadCLIConfig(ctx),
		MetricsConfig: opmetrics.ReadCLIConfig(ctx),
		RPC:           oprpc.ReadCLIConfig(ctx),
		DataDir:       ctx.String(DataDirFlag.Name),
		InMemory:      ctx.Bool(InMemoryFlag.Name),
		Protocol:      protocol,
	}, nil
}
