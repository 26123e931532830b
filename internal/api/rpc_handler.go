package api

import (
	"encoding/json"
	"net/http"

	"github.com/shakhov/paycore/internal/rpc"
)

// CallRPC обрабатывает JSON-RPC вызов tools/call.
// POST /rpc
//
// Любой исход доставляется как JSON-RPC envelope со статусом 200:
// транспортная ошибка — только нечитаемое тело (-32700).
func (h *Handler) CallRPC(w http.ResponseWriter, r *http.Request) {
	var env rpc.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		JSON(w, http.StatusOK, rpc.Response{
			JSONRPC: rpc.ProtocolVersion,
			Error: &rpc.RPCError{
				Code:    rpc.CodeParseError,
				Message: "parse error: invalid JSON",
			},
		})
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), &env)

	JSON(w, http.StatusOK, resp)
}
