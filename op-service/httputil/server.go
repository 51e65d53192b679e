// Package httputil runs the HTTP listeners of the messenger: the JSON-RPC endpoint and the metrics endpoint.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Timeouts are applied to the underlying http.Server on every start.
type Timeouts struct {
	Read       time.Duration
	ReadHeader time.Duration
	Write      time.Duration
	Idle       time.Duration
}

var DefaultTimeouts = Timeouts{
	Read:       30 * time.Second,
	ReadHeader: 30 * time.Second,
	Write:      30 * time.Second,
	Idle:       120 * time.Second,
}

type Option func(s *HTTPServer)

func WithTimeouts(t Timeouts) Option {
	return func(s *HTTPServer) {
		s.timeouts = t
	}
}

// HTTPServer serves a handler on addr. A zero port binds any free port, see Addr.
type HTTPServer struct {
	addr     string
	handler  http.Handler
	timeouts Timeouts

	mu       sync.RWMutex
	listener net.Listener
	srv      *http.Server
	cancel   context.CancelFunc
}

// NewHTTPServer creates an offline server. Start brings it up.
func NewHTTPServer(addr string, handler http.Handler, opts ...Option) *HTTPServer {
	s := &HTTPServer{addr: addr, handler: handler, timeouts: DefaultTimeouts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func StartHTTPServer(addr string, handler http.Handler, opts ...Option) (*HTTPServer, error) {
	s := NewHTTPServer(addr, handler, opts...)
	return s, s.Start()
}

// Start binds the listener and serves in the background.
// Requests see a base context that is cancelled on shutdown.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("server already started")
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to address %q: %w", s.addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.timeouts.Read,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		_ = srv.Serve(listener)
	}()
	s.listener, s.srv, s.cancel = listener, srv, cancel
	return nil
}

// Closed reports whether the server is offline.
func (s *HTTPServer) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv == nil
}

// Stop shuts down gracefully, and force-closes the open connections once ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	s.cancel()
	err := s.srv.Shutdown(ctx)
	if err != nil && errors.Is(err, ctx.Err()) {
		err = s.srv.Close()
	}
	if err != nil {
		return err
	}
	s.listener, s.srv, s.cancel = nil, nil, nil
	return nil
}

// Addr is the bound address, or nil when offline.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// HTTPEndpoint is the bound address with the http scheme, or empty when offline.
func (s *HTTPServer) HTTPEndpoint() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return "http://" + addr.String()
}
