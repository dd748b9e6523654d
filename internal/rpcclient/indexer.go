package rpcclient

import (
	"context"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// QueryTransactionBlocks lists transactions matching query. Absent cursor
// and limit are sent as null.
func (c *Client) QueryTransactionBlocks(ctx context.Context, query TransactionBlockResponseQuery, cursor *types.TransactionDigest, limit *uint, descending bool) (*TransactionBlocksPage, error) {
	var page TransactionBlocksPage
	if err := c.call(ctx, MethodQueryTransactionBlocks, &page, query, cursor, limit, descending); err != nil {
		return nil, err
	}
	return &page, nil
}
