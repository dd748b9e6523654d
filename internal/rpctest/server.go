// Package rpctest runs an in-process JSON-RPC node for tests. Server routes
// methods to registered handlers; Node implements the coin, read, indexer and
// write methods over a small in-memory ledger.
package rpctest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// HandlerFunc answers one method call.
type HandlerFunc func(params []json.RawMessage) (any, *Error)

// Recorded is a request as the server received it.
type Recorded struct {
	Method string
	Params []json.RawMessage
	Header http.Header
}

// Server is a JSON-RPC 2.0 HTTP server bound to a loopback port.
type Server struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []Recorded

	server *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

// New creates a server with no handlers.
func New() *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		logger:   klog.WithComponent("rpctest"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
	}
	return s
}

// Handle registers h for method, replacing any earlier handler.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Start begins serving on 127.0.0.1 with a kernel-chosen port.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("rpctest listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("rpctest server error")
		}
	}()
	return nil
}

// URL returns the endpoint clients should dial.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String() + "/"
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Calls returns the recorded requests for one method.
func (s *Server) Calls(method string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{Method: req.Method, Params: req.Params, Header: r.Header.Clone()})
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	if !ok {
		writeError(w, req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
		return
	}
	result, rpcErr := h(req.Params)
	if rpcErr != nil {
		writeJSON(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}
