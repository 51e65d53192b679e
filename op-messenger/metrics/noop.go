package metrics

import (
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
)

type NoopMetrics struct {
	opmetrics.NoopRPCMetrics
}

func (n NoopMetrics) RecordInfo(version string) {}

func (n NoopMetrics) RecordUp() {}

func (n NoopMetrics) RecordMessageSent(dir types.Direction) {}

func (n NoopMetrics) RecordMessageIngested(dir types.Direction) {}

func (n NoopMetrics) RecordAnchor(dir types.Direction, lastAnchored uint64) {}

func (n NoopMetrics) RecordBatchCommitted(dir types.Direction, leaves uint64) {}

func (n NoopMetrics) RecordClaim(dir types.Direction, value eth.ETH, err error) {}

var _ Metricer = NoopMetrics{}
