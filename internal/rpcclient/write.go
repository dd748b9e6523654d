package rpcclient

import (
	"context"
)

// ExecuteTransactionBlock submits a signed transaction. txBytes and each
// signature are Base64. A nil requestType is replaced by the default for
// opts, so the node never has to guess.
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string, opts *ResponseOptions, requestType *RequestType) (*TransactionBlockResponse, error) {
	if requestType == nil {
		var o ResponseOptions
		if opts != nil {
			o = *opts
		}
		rt := o.DefaultRequestType()
		requestType = &rt
	}
	if signatures == nil {
		signatures = []string{}
	}
	var resp TransactionBlockResponse
	if err := c.call(ctx, MethodExecuteTransaction, &resp, txBytes, signatures, opts, requestType); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DryRunTransactionBlock simulates an unsigned transaction and reports its
// effects and gas.
func (c *Client) DryRunTransactionBlock(ctx context.Context, txBytes string) (*DryRunTransactionBlockResponse, error) {
	var resp DryRunTransactionBlockResponse
	if err := c.call(ctx, MethodDryRunTransaction, &resp, txBytes); err != nil {
		return nil, err
	}
	return &resp, nil
}
