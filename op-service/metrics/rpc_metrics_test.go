package metrics

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/rpc"
)

type testMessage struct {
	id     json.RawMessage
	method string
	params json.RawMessage
	err    *rpc.JsonError
	result json.RawMessage
}

func (m *testMessage) MsgIsNotification() bool { return len(m.id) == 0 }
func (m *testMessage) MsgIsResponse() bool { return len(m.params) == 0 }
func (m *testMessage) MsgID() json.RawMessage { return m.id }
func (m *testMessage) MsgMethod() string { return m.method }
func (m *testMessage) MsgParams() json.RawMessage { return m.params }
func (m *testMessage) MsgError() *rpc.JsonError { return m.err }
func (m *testMessage) MsgResult() json.RawMessage { return m.result }

var _ rpc.RecordedMsg = (*testMessage)(nil)

func TestRPCServerMetrics(t *testing.T) {
	reg := NewRegistry()
	m := MakeRPCServerMetrics("testservice", With(reg))
	rec := m.NewRecorder("messenger")
	ctx := context.Background()

	req := &testMessage{
		method: "messenger_sendMessage",
		id:     json.RawMessage(`1`),
		params: json.RawMessage(`[{"direction":"l1-to-l2"}]`),
	}
	onDone := rec.RecordIncoming(ctx, req)
	onDone(ctx, req, &testMessage{id: req.id, result: json.RawMessage(`{"messageNumber":1}`)})

	onDone = rec.RecordIncoming(ctx, req)
	onDone(ctx, req, &testMessage{id: req.id, err: &rpc.JsonError{Code: -32000}})

	require.Nil(t, rec.RecordIncoming(ctx, &testMessage{method: "messenger_notify", params: json.RawMessage(`[]`)}))
	require.Nil(t, rec.RecordOutgoing(ctx, req), "servers do not record outgoing requests")

	snap := Gather(t, reg)
	labels := map[string]string{"rpc": "messenger", "method": req.method}

	require.EqualValues(t, 2, snap.Counter("testservice_rpc_server_requests_total", labels))
	require.EqualValues(t, 1, snap.Counter("testservice_rpc_server_responses_total", map[string]string{"method": req.method, "error": "<nil>"}))
	require.EqualValues(t, 1, snap.Counter("testservice_rpc_server_responses_total", map[string]string{"method": req.method, "error": "rpc_-32000"}))
	require.EqualValues(t, 2*len(req.params), snap.Counter("testservice_rpc_server_params_size_total", labels))
	require.EqualValues(t, len(`{"messageNumber":1}`), snap.Counter("testservice_rpc_server_results_size_total", labels))
	require.EqualValues(t, 2, snap.Observations("testservice_rpc_server_request_duration_seconds", labels))
	require.EqualValues(t, 1, snap.Counter("testservice_rpc_server_notifications_received_total", map[string]string{"method": "messenger_notify"}))
}

func TestNoopRPCMetrics(t *testing.T) {
	rec := NoopRPCMetrics{}.NewRecorder("messenger")
	require.Nil(t, rec.RecordIncoming(context.Background(), &testMessage{method: "x", id: json.RawMessage(`1`)}))
}
