package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/gavel/internal/endpoint"
)

// replyFunc returns the frames a test node writes in answer to req. A nil
// slice means the node stays silent.
type replyFunc func(req Request) []any

// testNode is a minimal websocket JSON-RPC node.
type testNode struct {
	srv   *httptest.Server
	reply replyFunc

	mu       sync.Mutex
	requests []Request
	conns    int
}

func newTestNode(t *testing.T, reply replyFunc) *testNode {
	t.Helper()

	n := &testNode{reply: reply}
	upgrader := websocket.Upgrader{}
	n.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n.mu.Lock()
		n.conns++
		n.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req Request
			if err := json.Unmarshal(data, &req); err != nil {
				return
			}
			n.mu.Lock()
			n.requests = append(n.requests, req)
			n.mu.Unlock()

			for _, frame := range n.reply(req) {
				if raw, ok := frame.(rawFrame); ok {
					if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
						return
					}
					continue
				}
				if _, ok := frame.(closeFrame); ok {
					return
				}
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(n.srv.Close)
	return n
}

// rawFrame is written verbatim.
type rawFrame string

// closeFrame makes the node drop the connection.
type closeFrame struct{}

func (n *testNode) URL() string {
	return "ws" + strings.TrimPrefix(n.srv.URL, "http")
}

func (n *testNode) endpoint(t *testing.T) *endpoint.Endpoint {
	t.Helper()
	ep, err := endpoint.Resolve(n.URL(), "")
	require.NoError(t, err)
	return ep
}

func (n *testNode) Requests() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Request, len(n.requests))
	copy(out, n.requests)
	return out
}

func (n *testNode) Conns() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conns
}

func result(req Request, v any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": v}
}

func rpcError(req Request, code int, msg string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"error":   map[string]any{"code": code, "message": msg},
	}
}
