package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/frontend"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/metrics"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
	oprpc "github.com/mantlenetworkio/mantle-messaging/op-service/rpc"
	"github.com/mantlenetworkio/mantle-messaging/op-service/testlog"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultCLIConfig()
	cfg.Version = "v0.0.1"
	cfg.DataDir = t.TempDir()
	cfg.MetricsConfig = opmetrics.CLIConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1",
		ListenPort: 0,
	}
	cfg.RPC = oprpc.CLIConfig{
		ListenAddr:  "127.0.0.1",
		ListenPort:  0,
		EnableAdmin: true,
	}
	require.NoError(t, cfg.Check())
	return cfg
}

// TestService is a quick smoke-test to check the service is up and running
func TestService(t *testing.T) {
	logger := testlog.Logger(t, log.LevelInfo)
	cfg := testConfig(t)
	srv, err := FromConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	require.NotEmpty(t, srv.RPC())
	require.False(t, srv.Stopped())

	cl, err := rpc.Dial(srv.RPC())
	require.NoError(t, err)
	defer cl.Close()

	var sent types.Message
	require.NoError(t, cl.Call(&sent, "messenger_sendMessage", frontend.SendArgs{
		Direction: types.L1ToL2,
		From:      common.Address{0x01},
		To:        common.Address{0x02},
		Fee:       eth.ZeroWei,
		Value:     eth.WeiU64(1),
	}))
	require.Equal(t, uint64(1), sent.MessageNumber)

	var head hexutil.Uint64
	require.NoError(t, cl.Call(&head, "admin_advanceBlock", types.L1, hexutil.Uint64(1)))
	require.Equal(t, hexutil.Uint64(1), head)

	m, ok := srv.metrics.(*metrics.Metrics)
	require.True(t, ok)
	snap := opmetrics.Gather(t, m.Registry())
	require.EqualValues(t, 1, snap.Counter("op_messenger_default_messages_sent_total", map[string]string{"direction": "l1-to-l2"}))
	require.EqualValues(t, 1, snap.Counter("op_messenger_default_rpc_server_requests_total", map[string]string{"rpc": "messenger", "method": "admin_advanceBlock"}))

	require.NoError(t, srv.Stop(context.Background()))
	require.True(t, srv.Stopped())
	require.NoError(t, srv.Stop(context.Background()), "stopping twice is a no-op")
}

func TestServiceKeepsLedgerAcrossRestarts(t *testing.T) {
	logger := testlog.Logger(t, log.LevelInfo)
	cfg := testConfig(t)
	cfg.MetricsConfig.Enabled = false

	srv, err := FromConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	m, err := srv.Messenger().Send(context.Background(), types.L2ToL1, common.Address{0x01}, common.Address{0x02}, eth.ZeroWei, eth.WeiU64(3), nil)
	require.NoError(t, err)
	require.NoError(t, srv.Stop(context.Background()))

	srv, err = FromConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, srv.Stop(context.Background()))
	}()
	got, err := srv.Messenger().Message(m.Direction, m.Hash)
	require.NoError(t, err)
	require.Equal(t, m.Hash, got.Hash)
}

func TestServiceInMemory(t *testing.T) {
	logger := testlog.Logger(t, log.LevelInfo)
	cfg := testConfig(t)
	cfg.DataDir = ""
	cfg.InMemory = true
	cfg.MetricsConfig.Enabled = false

	srv, err := FromConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	n, err := srv.Messenger().LastMessageNumber(types.L1ToL2)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, srv.Stop(context.Background()))
}
