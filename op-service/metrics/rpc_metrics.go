package metrics

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
)

const RPCServerSubsystem = "rpc_server"

type RPCMetricer interface {
	NewRecorder(name string) rpc.Recorder
}

// RPCServerMetrics tracks the requests served by an RPC server.
type RPCServerMetrics struct {
	requestsTotal          *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
	responsesTotal         *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	paramsSizeTotal        *prometheus.CounterVec
	resultsSizeTotal       *prometheus.CounterVec
}

var _ RPCMetricer = (*RPCServerMetrics)(nil)

// MakeRPCServerMetrics creates the RPC server metrics of the given namespace.
// It is intended to be embedded into the metrics struct of a service.
func MakeRPCServerMetrics(ns string, factory Factory) RPCServerMetrics {
	labels := []string{"rpc", "method"}
	return RPCServerMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "requests_total",
			Help:      "Total requests to the RPC server",
		}, labels),
		requestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "request_duration_seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			Help:      "Histogram of RPC server request durations",
		}, labels),
		responsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "responses_total",
			Help:      "Total RPC request responses served",
		}, []string{"rpc", "method", "error"}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "notifications_received_total",
			Help:      "Total RPC notifications received",
		}, labels),
		paramsSizeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "params_size_total",
			Help:      "Total bytes of RPC params received",
		}, labels),
		resultsSizeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: RPCServerSubsystem,
			Name:      "results_size_total",
			Help:      "Total bytes of RPC results sent back",
		}, labels),
	}
}

func (m *RPCServerMetrics) NewRecorder(name string) rpc.Recorder {
	return &serverRecorder{m: m, name: name}
}

type serverRecorder struct {
	m    *RPCServerMetrics
	name string
}

// RecordOutgoing is a no-op: a server only answers requests.
func (rec *serverRecorder) RecordOutgoing(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	return nil
}

func (rec *serverRecorder) RecordIncoming(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	method := msg.MsgMethod()
	if msg.MsgIsNotification() {
		rec.m.notificationsTotal.WithLabelValues(rec.name, method).Inc()
		return nil
	}
	rec.m.requestsTotal.WithLabelValues(rec.name, method).Inc()
	rec.m.paramsSizeTotal.WithLabelValues(rec.name, method).Add(float64(len(msg.MsgParams())))
	timer := prometheus.NewTimer(rec.m.requestDurationSeconds.WithLabelValues(rec.name, method))
	return func(ctx context.Context, input, output rpc.RecordedMsg) {
		timer.ObserveDuration()
		if output == nil {
			return
		}
		errStr := "<nil>"
		if msgErr := output.MsgError(); msgErr != nil {
			errStr = fmt.Sprintf("rpc_%d", msgErr.ErrorCode())
		} else {
			rec.m.resultsSizeTotal.WithLabelValues(rec.name, method).Add(float64(len(output.MsgResult())))
		}
		rec.m.responsesTotal.WithLabelValues(rec.name, method, errStr).Inc()
	}
}

type NoopRPCMetrics struct{}

var _ RPCMetricer = NoopRPCMetrics{}

func (NoopRPCMetrics) NewRecorder(name string) rpc.Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) RecordIncoming(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	return nil
}

func (noopRecorder) RecordOutgoing(ctx context.Context, msg rpc.RecordedMsg) rpc.RecordDone {
	return nil
}
