package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/rs/zerolog"
)

// Header names sent with every request.
const (
	HeaderSDKType          = "client-sdk-type"
	HeaderSDKVersion       = "client-sdk-version"
	HeaderTargetAPIVersion = "client-target-api-version"
)

// TargetAPIVersion is the node API version this client speaks.
const TargetAPIVersion = "0.13.0-alpha"

// DefaultTimeout bounds a request on the timeout-enabled transport.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Transport performs one JSON-RPC call and decodes the result into result.
// A nil result discards it.
type Transport interface {
	Call(ctx context.Context, method string, params []any, result any) error
}

// HTTPTransport is a JSON-RPC 2.0 client over HTTP POST. It holds only
// immutable configuration and is safe for concurrent use.
type HTTPTransport struct {
	endpoint string
	http     *http.Client
	headers  http.Header
	logger   zerolog.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) { t.http.Timeout = d }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.http = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(t *HTTPTransport) { t.logger = l }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(t *HTTPTransport) { t.headers.Set(key, value) }
}

// NewHTTPTransport creates a transport for endpoint with DefaultTimeout.
func NewHTTPTransport(endpoint string, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		headers:  make(http.Header),
		logger:   klog.RPC,
	}
	t.headers.Set("Content-Type", "application/json")
	t.headers.Set(HeaderSDKType, "go")
	t.headers.Set(HeaderSDKVersion, TargetAPIVersion)
	t.headers.Set(HeaderTargetAPIVersion, TargetAPIVersion)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewNoTimeoutTransport creates a transport without a client-side timeout;
// only ctx bounds a call.
func NewNoTimeoutTransport(endpoint string, opts ...Option) *HTTPTransport {
	return NewHTTPTransport(endpoint, append([]Option{WithTimeout(0)}, opts...)...)
}

// Endpoint returns the node URL.
func (t *HTTPTransport) Endpoint() string { return t.endpoint }

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Call invokes method and unmarshals the result into result.
func (t *HTTPTransport) Call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	for k, v := range t.headers {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	t.logger.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("rpc call")

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
		}
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
	}

	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
