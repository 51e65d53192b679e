package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/mantle-messaging/op-service/testlog"
)

type counterAPI struct {
	n int
}

func (c *counterAPI) Add(delta int) int {
	c.n += delta
	return c.n
}

type countingRecorder struct {
	mu       sync.Mutex
	incoming []string
}

func (r *countingRecorder) RecordIncoming(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incoming = append(r.incoming, msg.MsgMethod())
	return nil
}

func (r *countingRecorder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.incoming...)
}

func (r *countingRecorder) RecordOutgoing(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	return nil
}

func startServer(t *testing.T, opts ...Option) *Server {
	opts = append([]Option{WithLogger(testlog.Logger(t, log.LevelTrace))}, opts...)
	server := NewServer("127.0.0.1", 0, "v1.2.3", opts...)
	server.AddAPI(rpc.API{Namespace: "counter", Service: new(counterAPI)})
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		require.NoError(t, server.Stop(context.Background()))
	})
	return server
}

func TestServer(t *testing.T) {
	rec := new(countingRecorder)
	server := startServer(t, WithWebsocketEnabled(), WithRPCRecorder(rec))

	t.Run("binds a free port", func(t *testing.T) {
		_, portStr, err := net.SplitHostPort(server.Endpoint())
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)
		require.Greater(t, port, 0)
	})

	t.Run("healthz", func(t *testing.T) {
		for _, path := range []string{"/healthz", "/healthz/"} {
			res, err := http.Get(server.HTTPEndpoint() + path)
			require.NoError(t, err)
			var body HealthzResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			require.NoError(t, res.Body.Close())
			require.Equal(t, "v1.2.3", body.Version)
		}
	})

	t.Run("http", func(t *testing.T) {
		cl, err := rpc.Dial(server.HTTPEndpoint())
		require.NoError(t, err)
		defer cl.Close()
		var version string
		require.NoError(t, cl.Call(&version, "health_status"))
		require.Equal(t, "v1.2.3", version)
		var n int
		require.NoError(t, cl.Call(&n, "counter_add", 2))
		require.Equal(t, 2, n)
	})

	t.Run("websocket", func(t *testing.T) {
		for _, path := range []string{"", "/ws"} {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			cl, err := rpc.DialContext(ctx, "ws://"+server.Endpoint()+path)
			cancel()
			require.NoError(t, err)
			var n int
			require.NoError(t, cl.Call(&n, "counter_add", 1))
			cl.Close()
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		res, err := http.Get(server.HTTPEndpoint() + "/unknown")
		require.NoError(t, err)
		require.NoError(t, res.Body.Close())
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	require.Contains(t, rec.methods(), "counter_add")
	require.Contains(t, rec.methods(), "health_status")
}

func TestWebsocketDisabled(t *testing.T) {
	server := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := rpc.DialContext(ctx, "ws://"+server.Endpoint())
	require.Error(t, err)
}

func TestDuplicateNamespacePanics(t *testing.T) {
	server := NewServer("127.0.0.1", 0, "v0", WithLogger(testlog.Logger(t, log.LevelInfo)))
	server.AddAPI(rpc.API{Namespace: "counter", Service: new(counterAPI)})
	require.Panics(t, func() {
		server.AddAPI(rpc.API{Namespace: "counter", Service: 42})
	})
}
