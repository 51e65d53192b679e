// Package service runs the messenger ledger as a JSON-RPC service.
package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/flags"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/frontend"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/metrics"
	"github.com/mantlenetworkio/mantle-messaging/op-service/cliapp"
	"github.com/mantlenetworkio/mantle-messaging/op-service/event"
	"github.com/mantlenetworkio/mantle-messaging/op-service/httputil"
	oplog "github.com/mantlenetworkio/mantle-messaging/op-service/log"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
	oprpc "github.com/mantlenetworkio/mantle-messaging/op-service/rpc"
)

type MainFn func(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error)

// Main is the entrypoint into the messenger service.
func Main(version string, fn MainFn) cliapp.LifecycleAction {
	return func(cliCtx *cli.Context, _ context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		cfg, err := flags.ConfigFromCLI(cliCtx, version)
		if err != nil {
			return nil, err
		}
		if err := cfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid CLI flags: %w", err)
		}

		l := oplog.NewLogger(cliCtx.App.Writer, cfg.LogConfig)

		l.Info("Initializing messenger", "version", version)
		return fn(cliCtx.Context, cfg, l)
	}
}

type Service struct {
	closing atomic.Bool

	log log.Logger

	store     state.Store
	bus       *event.Bus
	messenger *messaging.Messenger

	metrics    metrics.Metricer
	metricsSrv *httputil.HTTPServer
	rpcServer  *oprpc.Server
}

var _ cliapp.Lifecycle = (*Service)(nil)

func FromConfig(ctx context.Context, cfg *config.Config, logger log.Logger) (*Service, error) {
	s := &Service{log: logger}
	if err := s.initFromConfig(ctx, cfg); err != nil {
		return nil, multierror.Append(err, s.Stop(ctx)).ErrorOrNil()
	}
	return s, nil
}

func (s *Service) initFromConfig(ctx context.Context, cfg *config.Config) error {
	s.initMetrics(cfg)
	if err := s.initMetricsServer(cfg); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	if err := s.initStore(cfg); err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if err := s.initMessenger(cfg); err != nil {
		return fmt.Errorf("failed to create messenger: %w", err)
	}
	s.initRPCServer(cfg)
	return nil
}

func (s *Service) initMetrics(cfg *config.Config) {
	if cfg.MetricsConfig.Enabled {
		s.metrics = metrics.NewMetrics("default")
		s.metrics.RecordInfo(cfg.Version)
	} else {
		s.metrics = metrics.NoopMetrics{}
	}
}

func (s *Service) initMetricsServer(cfg *config.Config) error {
	if !cfg.MetricsConfig.Enabled {
		s.log.Info("Metrics disabled")
		return nil
	}
	m, ok := s.metrics.(opmetrics.RegistryMetricer)
	if !ok {
		return fmt.Errorf("metrics were enabled, but metricer %T does not expose registry for metrics-server", s.metrics)
	}
	s.log.Debug("Starting metrics server", "addr", cfg.MetricsConfig.ListenAddr, "port", cfg.MetricsConfig.ListenPort)
	metricsSrv, err := opmetrics.StartServer(m.Registry(), cfg.MetricsConfig.ListenAddr, cfg.MetricsConfig.ListenPort)
	if err != nil {
		return err
	}
	s.log.Info("Started metrics server", "addr", metricsSrv.Addr())
	s.metricsSrv = metricsSrv
	return nil
}

func (s *Service) initStore(cfg *config.Config) error {
	if cfg.InMemory {
		s.log.Warn("Running on an in-memory ledger, state is lost on shutdown")
		s.store = state.NewMemoryStore()
		return nil
	}
	store, err := state.OpenPebbleStore(s.log, cfg.DataDir)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

func (s *Service) initMessenger(cfg *config.Config) error {
	s.bus = event.NewBus(s.log)
	s.bus.Register(event.DebugDeriver{Log: s.log})
	m, err := messaging.NewMessenger(s.log, cfg.Protocol, s.store, s.bus, s.metrics)
	if err != nil {
		return err
	}
	s.messenger = m
	return nil
}

func (s *Service) initRPCServer(cfg *config.Config) {
	s.rpcServer = oprpc.NewServer(cfg.RPC.ListenAddr, cfg.RPC.ListenPort, cfg.Version,
		oprpc.WithLogger(s.log),
		oprpc.WithWebsocketEnabled(),
		oprpc.WithRPCRecorder(s.metrics.NewRecorder("messenger")),
	)
	s.rpcServer.AddAPI(rpc.API{
		Namespace: "messenger",
		Service:   frontend.NewMessengerFrontend(s.messenger),
	})
	if cfg.RPC.EnableAdmin {
		s.log.Info("Admin RPC enabled")
		s.rpcServer.AddAPI(rpc.API{
			Namespace:     "admin",
			Service:       frontend.NewAdminFrontend(s.messenger),
			Authenticated: true,
		})
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting JSON-RPC server")
	if err := s.rpcServer.Start(); err != nil {
		return fmt.Errorf("unable to start RPC server: %w", err)
	}
	s.metrics.RecordUp()
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		s.log.Warn("Already closing")
		return nil
	}
	var result *multierror.Error
	if s.rpcServer != nil {
		if err := s.rpcServer.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop RPC server: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close store: %w", err))
		}
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	s.log.Info("Messenger stopped")
	return result.ErrorOrNil()
}

func (s *Service) Stopped() bool {
	return s.closing.Load()
}

// RPC returns the HTTP endpoint of the JSON-RPC server.
func (s *Service) RPC() string {
	return s.rpcServer.HTTPEndpoint()
}

func (s *Service) Messenger() *messaging.Messenger {
	return s.messenger
}
