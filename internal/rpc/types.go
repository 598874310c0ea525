package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Request is a JSON-RPC 2.0 call as written to the socket.
//
// The ID is a random UUID string generated per call. The node echoes it back
// in the response, which is how a response is matched to the request that is
// currently waiting on the connection.
type Request struct {
	JSONRPC string `json:"jsonrpc"` // Always "2.0"
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// Response is a single frame received from the node.
//
// ID is kept raw because nodes are free to echo ids as strings or numbers,
// and subscription notifications carry no id at all. Result stays raw as
// well; its shape depends on the method and is decoded by the caller.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"` // set on notifications
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a JSON-RPC response.
//
// Standard codes:
//
//	-32700  Parse error
//	-32600  Invalid request
//	-32601  Method not found
//	-32602  Invalid params
//	-32603  Internal error
//
// Substrate nodes add their own ranges (e.g. 4000+ for chain errors and
// 8010 for MMR proof generation failures).
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// matchesID reports whether the frame answers the request with the given id.
func (r *Response) matchesID(id string) bool {
	if len(r.ID) == 0 {
		return false
	}
	var got string
	if err := json.Unmarshal(r.ID, &got); err != nil {
		return false
	}
	return got == id
}

// RemoteError is returned when the node answers with an error object.
type RemoteError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: RPC error %d: %s", e.Method, e.Code, e.Message)
	if len(e.Data) > 0 && !isNull(e.Data) {
		msg += fmt.Sprintf(" (%s)", bytes.TrimSpace(e.Data))
	}
	return msg
}

// Is makes errors.Is(err, ErrRemote) hold for every *RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
