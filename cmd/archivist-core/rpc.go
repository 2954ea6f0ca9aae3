package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// Timeout classes from spec.md §5/§6: every Host<->Core request is
// bounded, but a timeout only unblocks the caller — it never cancels
// the work underneath it.
const (
	rpcTimeoutDefault  = 30 * time.Second
	rpcTimeoutLong     = 2 * time.Minute
	rpcTimeoutVeryLong = 10 * time.Minute
)

// rpcMethodHandler runs one method's payload to completion. It is
// called with a context that is never cancelled by the request's
// timeout, so a slow capture or batch regeneration keeps running even
// after the caller has already been told the call timed out.
type rpcMethodHandler func(ctx context.Context, payload json.RawMessage) (any, error)

type rpcMethod struct {
	timeout time.Duration
	handler rpcMethodHandler
}

// rpcServer implements the Host<->Core request/response protocol,
// spec.md §6: "each request is {method, channel, payload}; each
// response is {status, body | error}". It is the single entry point the
// UI shell uses for everything that isn't the media:// stream protocol.
type rpcServer struct {
	log     *zap.Logger
	methods map[string]rpcMethod
}

func newRPCServer(log *zap.Logger) *rpcServer {
	return &rpcServer{log: log, methods: make(map[string]rpcMethod)}
}

func (s *rpcServer) register(method string, timeout time.Duration, handler rpcMethodHandler) {
	s.methods[method] = rpcMethod{timeout: timeout, handler: handler}
}

type rpcRequest struct {
	Method  string          `json:"method"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

type rpcResponse struct {
	Status  string          `json:"status"`
	Channel string          `json:"channel,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

type rpcErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rpcOutcome struct {
	result any
	err    error
}

func (s *rpcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	method, ok := s.methods[req.Method]
	if !ok {
		s.writeResponse(w, rpcResponse{
			Status:  "error",
			Channel: req.Channel,
			Error:   &rpcErrorBody{Code: "unknown_method", Message: fmt.Sprintf("no such method %q", req.Method)},
		})
		return
	}

	// workCtx deliberately does not inherit r.Context()'s deadline: a
	// timeout response unblocks the caller without aborting the work,
	// per spec.md §5's timeout semantics.
	workCtx := context.Background()
	outcome := make(chan rpcOutcome, 1)
	go func() {
		result, err := method.handler(workCtx, req.Payload)
		outcome <- rpcOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(method.timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.log.Warn("rpc call timed out, continuing in background",
			zap.String("method", req.Method), zap.String("channel", req.Channel))
		s.writeResponse(w, rpcResponse{Status: "timeout", Channel: req.Channel})

	case o := <-outcome:
		if o.err != nil {
			s.log.Error("rpc call failed", zap.String("method", req.Method), zap.Error(o.err))
			s.writeResponse(w, rpcResponse{
				Status:  "error",
				Channel: req.Channel,
				Error:   &rpcErrorBody{Code: errorCode(o.err), Message: o.err.Error()},
			})
			return
		}
		body, err := json.Marshal(o.result)
		if err != nil {
			s.writeResponse(w, rpcResponse{
				Status:  "error",
				Channel: req.Channel,
				Error:   &rpcErrorBody{Code: "encode_failed", Message: err.Error()},
			})
			return
		}
		s.writeResponse(w, rpcResponse{Status: "ok", Channel: req.Channel, Body: body})
	}
}

func (s *rpcServer) writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// errorCode maps an error's errs2 class to the machine-readable code
// spec.md §6 requires every error response to carry.
func errorCode(err error) string {
	switch {
	case errs2.IOError.Has(err):
		return "io_error"
	case errs2.PathEscape.Has(err):
		return "path_escape"
	case errs2.CorruptedCopy.Has(err):
		return "corrupted_copy"
	case errs2.DuplicateHash.Has(err):
		return "duplicate_hash"
	case errs2.Cancelled.Has(err):
		return "cancelled"
	case errs2.SchemaMismatch.Has(err):
		return "schema_mismatch"
	case errs2.ForeignKeyViolation.Has(err):
		return "foreign_key_violation"
	case errs2.TimeoutExceeded.Has(err):
		return "timeout_exceeded"
	case errs2.ExternalHelperUnavailable.Has(err):
		return "external_helper_unavailable"
	case errs2.ConflictingMerge.Has(err):
		return "conflicting_merge"
	case errs2.CorruptInput.Has(err):
		return "corrupt_input"
	default:
		return "internal"
	}
}
