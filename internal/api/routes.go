package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// JSON-RPC
	mux.Handle("POST /rpc", chain(http.HandlerFunc(h.CallRPC)))

	// Tasks
	mux.Handle("POST /api/v1/tasks", chain(http.HandlerFunc(h.EnqueueTask)))
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetUnit)))

	// Dead letters
	mux.Handle("GET /api/v1/dead-letters", chain(http.HandlerFunc(h.ListDeadLetters)))
}
