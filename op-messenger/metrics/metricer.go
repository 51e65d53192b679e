package metrics

import (
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-messaging/op-service/metrics"
)

type Metricer interface {
	RecordInfo(version string)
	RecordUp()

	opmetrics.RPCMetricer

	RecordMessageSent(dir types.Direction)
	RecordMessageIngested(dir types.Direction)
	RecordAnchor(dir types.Direction, lastAnchored uint64)
	RecordBatchCommitted(dir types.Direction, leaves uint64)
	RecordClaim(dir types.Direction, value eth.ETH, err error)
}
