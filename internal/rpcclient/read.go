package rpcclient

import (
	"context"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// GetTransactionBlock fetches one transaction. Nodes answer an unknown digest
// with an invalid-params error; see IsInvalidParams.
func (c *Client) GetTransactionBlock(ctx context.Context, digest types.TransactionDigest, opts *ResponseOptions) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	if err := c.call(ctx, MethodGetTransactionBlock, &resp, digest, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCheckpoint fetches a checkpoint by sequence number or digest.
func (c *Client) GetCheckpoint(ctx context.Context, id CheckpointID) (*Checkpoint, error) {
	var cp Checkpoint
	if err := c.call(ctx, MethodGetCheckpoint, &cp, id); err != nil {
		return nil, err
	}
	return &cp, nil
}
