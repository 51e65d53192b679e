package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
)

var wildcardHosts = []string{"*"}

// Handler serves JSON-RPC over HTTP on the root path, and optionally over websocket
// on the root and /ws paths. GET /healthz reports the app version.
type Handler struct {
	appVersion string
	corsHosts  []string
	vHosts     []string
	wsEnabled  bool
	recorder   rpc.Recorder
	log        log.Logger

	srv  *rpc.Server
	http http.Handler
	ws   http.Handler
}

type Option func(h *Handler)

func WithCORSHosts(hosts []string) Option {
	return func(h *Handler) {
		h.corsHosts = hosts
	}
}

func WithVHosts(hosts []string) Option {
	return func(h *Handler) {
		h.vHosts = hosts
	}
}

// WithWebsocketEnabled allows websocket upgrades on `/` and `/ws`.
func WithWebsocketEnabled() Option {
	return func(h *Handler) {
		h.wsEnabled = true
	}
}

func WithLogger(lgr log.Logger) Option {
	return func(h *Handler) {
		h.log = lgr
	}
}

// WithRPCRecorder records every served request, see the op-service metrics RPCMetricer.
func WithRPCRecorder(recorder rpc.Recorder) Option {
	return func(h *Handler) {
		h.recorder = recorder
	}
}

func NewHandler(appVersion string, opts ...Option) *Handler {
	h := &Handler{
		appVersion: appVersion,
		corsHosts:  wildcardHosts,
		vHosts:     wildcardHosts,
		log:        log.Root(),
		srv:        rpc.NewServer(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.srv.SetRecorder(h.recorder)
	if err := h.srv.RegisterName("health", &healthzAPI{appVersion: appVersion}); err != nil {
		panic(fmt.Errorf("failed to setup default health RPC namespace: %w", err))
	}
	h.http = node.NewHTTPHandlerStack(h.srv, h.corsHosts, h.vHosts, nil)
	if h.wsEnabled {
		h.ws = node.NewWSHandlerStack(h.srv.WebsocketHandler(h.corsHosts), nil)
	}
	return h
}

var _ http.Handler = (*Handler)(nil)

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Trace("Serving RPC request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&HealthzResponse{Version: h.appVersion})
	case h.ws != nil && isWebsocket(r) && (path == "" || path == "/ws"):
		h.ws.ServeHTTP(w, r)
	case path == "":
		h.http.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// AddAPI registers a service under the API namespace.
func (h *Handler) AddAPI(api rpc.API) error {
	if err := h.srv.RegisterName(api.Namespace, api.Service); err != nil {
		return fmt.Errorf("failed to register API namespace %s: %w", api.Namespace, err)
	}
	h.log.Info("Registered API", "namespace", api.Namespace)
	return nil
}

func (h *Handler) Stop() {
	h.log.Debug("Stopping RPC")
	h.srv.Stop()
}

type HealthzResponse struct {
	Version string `json:"version"`
}

type healthzAPI struct {
	appVersion string
}

func (h *healthzAPI) Status() string {
	return h.appVersion
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
