// Package rpcclient is a JSON-RPC 2.0 client for IOTA Rebased full nodes.
package rpcclient

import (
	"context"
	"fmt"
)

// Method names.
const (
	MethodGetCoins               = "iotax_getCoins"
	MethodGetBalance             = "iotax_getBalance"
	MethodGetReferenceGasPrice   = "iotax_getReferenceGasPrice"
	MethodGetTransactionBlock    = "iota_getTransactionBlock"
	MethodGetCheckpoint          = "iota_getCheckpoint"
	MethodQueryTransactionBlocks = "iotax_queryTransactionBlocks"
	MethodExecuteTransaction     = "iota_executeTransactionBlock"
	MethodDryRunTransaction      = "iota_dryRunTransactionBlock"
)

// Client exposes the typed node API over a Transport.
type Client struct {
	t Transport
}

// New wraps t.
func New(t Transport) *Client {
	return &Client{t: t}
}

// Dial creates a client for the node at url using the timeout-enabled
// HTTP transport.
func Dial(url string, opts ...Option) *Client {
	return New(NewHTTPTransport(url, opts...))
}

// DialNoTimeout creates a client whose calls are bounded only by ctx.
func DialNoTimeout(url string, opts ...Option) *Client {
	return New(NewNoTimeoutTransport(url, opts...))
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport { return c.t }

// call wraps transport errors with the method name. RPC and HTTP errors keep
// their types under errors.As.
func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	if err := c.t.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
