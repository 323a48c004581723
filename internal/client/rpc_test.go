package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// rpcHandler answers one JSON-RPC method. Returning a non-nil error string
// produces a JSON-RPC error object.
type rpcHandler func(params []json.RawMessage) (result any, rpcErr string)

type fakeRPC struct {
	mu      sync.Mutex
	methods map[string]rpcHandler
	calls   map[string]int
}

func newFakeRPC(t *testing.T, methods map[string]rpcHandler) (*fakeRPC, string) {
	t.Helper()
	f := &fakeRPC{methods: methods, calls: map[string]int{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls[req.Method]++
	h, ok := f.methods[req.Method]
	f.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
	} else if result, rpcErr := h(req.Params); rpcErr != "" {
		resp["error"] = map[string]any{"code": -32000, "message": rpcErr}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}
