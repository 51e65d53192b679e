package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
)

const Namespace = "op_messenger"

type Metrics struct {
	ns       string
	registry *prometheus.Registry
	factory  opmetrics.Factory

	opmetrics.RPCServerMetrics

	messagesSent     *prometheus.CounterVec
	messagesIngested *prometheus.CounterVec
	lastAnchored     *prometheus.GaugeVec
	batches          *prometheus.CounterVec
	batchLeaves      *prometheus.HistogramVec
	claims           *prometheus.CounterVec
	claimedValue     *prometheus.CounterVec

	info prometheus.GaugeVec
	up   prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	return newMetrics(procName, opmetrics.NewRegistry())
}

func newMetrics(procName string, registry *prometheus.Registry) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName

	factory := opmetrics.With(registry)
	return &Metrics{
		ns:       ns,
		registry: registry,
		factory:  factory,

		RPCServerMetrics: opmetrics.MakeRPCServerMetrics(ns, factory),

		info: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if op-messenger has finished starting up",
		}),

		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "messages_sent_total",
			Help:      "Count of messages appended to the source log",
		}, []string{"direction"}),
		messagesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "messages_ingested_total",
			Help:      "Count of messages mirrored by the destination",
		}, []string{"direction"}),
		lastAnchored: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "last_anchored_message_number",
			Help:      "Highest anchored message number",
		}, []string{"direction"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "batches_committed_total",
			Help:      "Count of published merkle trees",
		}, []string{"direction"}),
		batchLeaves: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "batch_leaves",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
			Help:      "Number of messages per published merkle tree",
		}, []string{"direction"}),
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "claims_total",
			Help:      "Count of claim attempts by result",
		}, []string{"direction", "result"}),
		claimedValue: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "claimed_value_wei_total",
			Help:      "Total value transferred by successful claims, in wei",
		}, []string{"direction"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Document() []opmetrics.DocumentedMetric {
	return m.factory.Document()
}

// RecordInfo sets a pseudo-metric that contains versioning and config info.
func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

// RecordUp sets the up metric to 1.
func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordMessageSent(dir types.Direction) {
	m.messagesSent.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) RecordMessageIngested(dir types.Direction) {
	m.messagesIngested.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) RecordAnchor(dir types.Direction, lastAnchored uint64) {
	m.lastAnchored.WithLabelValues(dir.String()).Set(float64(lastAnchored))
}

func (m *Metrics) RecordBatchCommitted(dir types.Direction, leaves uint64) {
	m.batches.WithLabelValues(dir.String()).Inc()
	m.batchLeaves.WithLabelValues(dir.String()).Observe(float64(leaves))
}

func (m *Metrics) RecordClaim(dir types.Direction, value eth.ETH, err error) {
	m.claims.WithLabelValues(dir.String(), ClaimResult(err)).Inc()
	if err == nil {
		m.claimedValue.WithLabelValues(dir.String()).Add(value.WeiFloat())
	}
}

// ClaimResult is the result label of a claim attempt.
func ClaimResult(err error) string {
	switch {
	case err == nil:
		return "claimed"
	case errors.Is(err, types.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, types.ErrProofRejected):
		return "rejected"
	case errors.Is(err, types.ErrUnknownMessage):
		return "unknown_message"
	case errors.Is(err, types.ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "failed"
	}
}
