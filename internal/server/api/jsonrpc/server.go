// Package jsonrpc serves read-only marketplace queries over JSON-RPC 2.0.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
)

// Options configures a Server.
type Options struct {
	// Events serves receipt and event history. Nil disables those methods.
	Events eventstore.Store
	// QuoteCacheTTL bounds how long cacheable results are reused. Zero
	// disables the cache.
	QuoteCacheTTL time.Duration
	MaxBodyBytes  int64
	Logger        *zap.Logger
}

// Server handles HTTP JSON-RPC requests.
type Server struct {
	registry *MethodRegistry
	chain    Chain
	events   eventstore.Store
	cache    *cache.Cache
	maxBody  int64

	// cacheMu orders cache stores against commits. generation counts
	// invalidations so a result read before a commit is never stored
	// after it.
	cacheMu    sync.Mutex
	generation uint64

	logger   *zap.Logger
}

// NewServer creates a server answering from chain.
func NewServer(chain Chain, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	s := &Server{
		registry: NewMethodRegistry(),
		chain:    chain,
		events:   opts.Events,
		maxBody:  maxBody,
		logger:   logger.Named("rpc"),
	}
	if opts.QuoteCacheTTL > 0 {
		// No janitor: expired entries are dropped on every commit.
		s.cache = cache.New(opts.QuoteCacheTTL, 0)
	}

	s.registerAllMethods()

	return s
}

// InvalidateOn flushes the cache whenever h commits or reverts a
// transaction.
func (s *Server) InvalidateOn(h *host.Host) {
	if s.cache == nil {
		return
	}
	h.Subscribe(func(*host.Receipt) { s.invalidate() })
}

func (s *Server) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.cache.Flush()
}

func (s *Server) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// storeCached keeps result unless the cache was invalidated since gen.
func (s *Server) storeCached(key string, gen uint64, result interface{}) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation != gen {
		return
	}
	s.cache.SetDefault(key, result)
}

// Methods lists the registered method names.
func (s *Server) Methods() []string {
	return s.registry.List()
}

// Call executes method in-process, as the rpc CLI command does.
func (s *Server) Call(ctx context.Context, method string, params json.RawMessage) (interface{}, *RpcError) {
	params, rpcErr := normalizeParams(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.executeMethod(method, params, &RpcContext{Context: ctx, ClientIP: "local"})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeResponse(w, nil, nil, RpcErrorInvalidRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request JsonRpcRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, nil, RpcErrorParse(err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, request.ID, nil, RpcErrorInvalidRequest("missing method"))
		return
	}

	params, rpcErr := normalizeParams(request.Params)
	if rpcErr != nil {
		s.writeResponse(w, request.ID, nil, rpcErr)
		return
	}

	ctx := &RpcContext{
		Context:  r.Context(),
		ClientIP: getClientIP(r),
	}
	result, rpcErr := s.executeMethod(request.Method, params, ctx)
	s.writeResponse(w, request.ID, result, rpcErr)
}

// normalizeParams unwraps a one-element params array.
func normalizeParams(raw json.RawMessage) (json.RawMessage, *RpcError) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return trimmed, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	}
	return nil, RpcErrorInvalidParams("params array must hold one object")
}

func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}

	cacheKey := ""
	var gen uint64
	if s.cache != nil && handler.Cacheable() {
		cacheKey = method + "|" + string(params)
		gen = s.cacheGeneration()
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	start := time.Now()
	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.logger.Debug("rpc call failed",
			zap.String("method", method),
			zap.Int("code", rpcErr.Code),
			zap.String("error", rpcErr.Message))
		return nil, rpcErr
	}
	s.logger.Debug("rpc call",
		zap.String("method", method),
		zap.String("client", ctx.ClientIP),
		zap.Duration("took", time.Since(start)))

	if cacheKey != "" {
		s.storeCached(cacheKey, gen, result)
	}
	return result, nil
}

func (s *Server) writeResponse(w http.ResponseWriter, id interface{}, result interface{}, rpcErr *RpcError) {
	response := JsonRpcResponse{JsonRpc: "2.0", ID: id}
	if rpcErr != nil {
		response.Error = rpcErr
	} else {
		response.Result = result
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(responseData); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		s.logger.Debug("write response", zap.Error(err))
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
