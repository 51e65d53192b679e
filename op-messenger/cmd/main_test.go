package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/cliapp"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
)

const dump = `
messages:
  - {direction: l1-to-l2, fee: "0", value: "10"}
  - {direction: l1-to-l2, fee: "1", value: "2", calldata: "0x01"}
  - {direction: l2-to-l1, fee: "0", value: "5", blockNumber: 2}
  - {direction: l2-to-l1, fee: "0", value: "6", blockNumber: 2}
  - {direction: l2-to-l1, fee: "0", value: "7", blockNumber: 4}
`

func writeDump(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))
	return path
}

func runCmd(t *testing.T, fn func(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error), args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), &out, &out, append([]string{"op-messenger"}, args...), fn)
	return out.String(), err
}

func noService(t *testing.T) func(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error) {
	return func(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error) {
		t.Fatal("service must not start")
		return nil, nil
	}
}

func TestReplay(t *testing.T) {
	out, err := runCmd(t, noService(t), "replay", "--log", writeDump(t))
	require.NoError(t, err)
	first, err := types.HashMessage(common.Address{}, common.Address{}, eth.ZeroWei, eth.WeiU64(10), 1, nil)
	require.NoError(t, err)
	require.Contains(t, out, first.Hex())
	require.Contains(t, out, types.NextRollingHash(types.GenesisRollingHash, first).Hex())
}

func TestProveThenVerify(t *testing.T) {
	path := writeDump(t)
	out, err := runCmd(t, noService(t), "commitments", "--log", path)
	require.NoError(t, err)
	require.Contains(t, out, "[1, 4]")

	target, err := types.HashMessage(common.Address{}, common.Address{}, eth.ZeroWei, eth.WeiU64(6), 2, nil)
	require.NoError(t, err)
	out, err = runCmd(t, noService(t), "prove", "--log", path, "--hash", target.Hex())
	require.NoError(t, err)
	var pf ProofFile
	require.NoError(t, json.Unmarshal([]byte(out), &pf))
	require.Equal(t, target, pf.Message.Hash)
	require.Equal(t, uint64(1), pf.Proof.LeafIndex)
	require.Equal(t, uint64(3), pf.Commitment.LeafCount)

	proofPath := filepath.Join(t.TempDir(), "proof.json")
	require.NoError(t, os.WriteFile(proofPath, []byte(out), 0o644))
	out, err = runCmd(t, noService(t), "verify", "--proof", proofPath)
	require.NoError(t, err)
	require.Contains(t, out, `"valid": true`)

	pf.Proof.LeafIndex = 0
	data, err := json.Marshal(pf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(proofPath, data, 0o644))
	out, err = runCmd(t, noService(t), "verify", "--proof", proofPath)
	require.ErrorIs(t, err, types.ErrProofMismatch)
	require.Contains(t, out, `"valid": false`)
}

func TestProveUnknownMessage(t *testing.T) {
	_, err := runCmd(t, noService(t), "prove", "--log", writeDump(t), "--hash", common.Hash{0x01}.Hex())
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestDocMetrics(t *testing.T) {
	out, err := runCmd(t, noService(t), "doc", "metrics")
	require.NoError(t, err)
	var docs []opmetrics.DocumentedMetric
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.NotEmpty(t, docs)
}

type stubLifecycle struct {
	started, stopped bool
}

func (s *stubLifecycle) Start(ctx context.Context) error { s.started = true; return nil }
func (s *stubLifecycle) Stop(ctx context.Context) error { s.stopped = true; return nil }
func (s *stubLifecycle) Stopped() bool { return s.stopped }

func TestServeReadsFlags(t *testing.T) {
	var got *config.Config
	stub := &stubLifecycle{}
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error) {
		got = cfg
		cancel()
		return stub, nil
	}
	var out bytes.Buffer
	err := run(ctx, &out, &out, []string{"op-messenger", "--in-memory", "--rpc.port", "9000", "--log.level", "debug"}, fn)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.InMemory)
	require.Equal(t, 9000, got.RPC.ListenPort)
	require.True(t, stub.started)
	require.True(t, stub.stopped)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	_, err := runCmd(t, noService(t))
	require.ErrorIs(t, err, config.ErrMissingDataDir)
}
