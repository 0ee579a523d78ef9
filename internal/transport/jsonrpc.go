package transport

import (
	"encoding/json"
	"net/http"
)

// Transport-boundary JSON-RPC error codes. The first is the standard
// parse error; the rest sit in the server-defined range (-32000 to
// -32099) per the JSON-RPC 2.0 spec.
const (
	codeParseError       = -32700
	codeMethodNotAllowed = -32000
	codeUnauthorized     = -32001
	codeSessionNotFound  = -32004
)

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorResponse struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Error   rpcErrorBody `json:"error"`
}

// writeRPCError writes a protocol-formatted JSON-RPC error object.
// Transport and session failures must surface as structured protocol
// errors, not generic HTTP error pages.
func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcErrorResponse{
		JSONRPC: "2.0",
		ID:      nil,
		Error:   rpcErrorBody{Code: code, Message: message},
	})
}
