package config

import (
	"errors"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging"
	oplog "github.com/mantlenetworkio/mantle-messaging/op-service/log"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
	oprpc "github.com/mantlenetworkio/mantle-messaging/op-service/rpc"
)

var ErrMissingDataDir = errors.New("missing data directory")

type Config struct {
	Version string

	LogConfig     oplog.CLIConfig
	MetricsConfig opmetrics.CLIConfig
	RPC           oprpc.CLIConfig

	// DataDir is the pebble database directory. It is required unless InMemory is set.
	DataDir  string
	InMemory bool

	Protocol messaging.Config
}

func (c *Config) Check() error {
	var result error
	result = errors.Join(result, c.MetricsConfig.Check())
	result = errors.Join(result, c.RPC.Check())
	if c.DataDir == "" && !c.InMemory {
		result = errors.Join(result, ErrMissingDataDir)
	}
	result = errors.Join(result, c.Protocol.Check())
	return result
}

func DefaultCLIConfig() *Config {
	return &Config{
		Version:       "dev",
		LogConfig:     oplog.DefaultCLIConfig(),
		MetricsConfig: opmetrics.DefaultCLIConfig(),
		RPC:           oprpc.DefaultCLIConfig(),
		Protocol:      messaging.DefaultConfig(),
	}
}
