package rpc

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/mantle-messaging/op-service/httputil"
)

// Server binds a Handler to a listening HTTP server.
type Server struct {
	httpServer *httputil.HTTPServer
	handler    *Handler
}

func NewServer(host string, port int, appVersion string, opts ...Option) *Server {
	h := NewHandler(appVersion, opts...)
	endpoint := net.JoinHostPort(host, strconv.Itoa(port))
	return &Server{
		httpServer: httputil.NewHTTPServer(endpoint, h),
		handler:    h,
	}
}

// AddAPI registers an API namespace. It panics on an invalid service, like a duplicate namespace.
func (s *Server) AddAPI(api rpc.API) {
	if err := s.handler.AddAPI(api); err != nil {
		panic(fmt.Errorf("invalid API: %w", err))
	}
}

func (s *Server) Start() error {
	if err := s.httpServer.Start(); err != nil {
		return err
	}
	s.handler.log.Info("Started RPC server", "endpoint", s.httpServer.HTTPEndpoint())
	return nil
}

// Stop shuts the HTTP server down, force-closing connections still open when ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Stop(ctx)
	s.handler.Stop()
	s.handler.log.Info("Stopped RPC server")
	return err
}

// Endpoint returns the listening address, without scheme.
func (s *Server) Endpoint() string {
	return s.httpServer.Addr().String()
}

// HTTPEndpoint returns the listening address with the http:// scheme.
func (s *Server) HTTPEndpoint() string {
	return s.httpServer.HTTPEndpoint()
}
