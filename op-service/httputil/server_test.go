package httputil

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	s := NewHTTPServer("127.0.0.1:0", handler, WithTimeouts(Timeouts{Read: time.Second, Write: time.Second}))
	require.True(t, s.Closed())
	require.Empty(t, s.HTTPEndpoint())
	require.Nil(t, s.Addr())

	require.NoError(t, s.Start())
	require.False(t, s.Closed())
	require.ErrorContains(t, s.Start(), "already started")

	res, err := http.Get(s.HTTPEndpoint())
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	require.Equal(t, "pong", string(body))

	require.NoError(t, s.Stop(context.Background()))
	require.True(t, s.Closed())
	require.NoError(t, s.Stop(context.Background()))
}

func TestStartHTTPServerBindError(t *testing.T) {
	first, err := StartHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, first.Stop(context.Background()))
	}()
	_, err = StartHTTPServer(first.Addr().String(), http.NotFoundHandler())
	require.ErrorContains(t, err, "failed to bind")
}
