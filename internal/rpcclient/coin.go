package rpcclient

import (
	"context"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// GetCoins returns one page of coins of coinType owned by owner. A nil
// coinType means the native coin; nil cursor and limit leave paging to the
// node.
func (c *Client) GetCoins(ctx context.Context, owner types.AccountAddress, coinType *string, cursor *types.ObjectID, limit *uint) (*CoinPage, error) {
	var page CoinPage
	if err := c.call(ctx, MethodGetCoins, &page, owner, coinType, cursor, limit); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAllCoins follows cursors until the node reports no further page.
func (c *Client) GetAllCoins(ctx context.Context, owner types.AccountAddress, coinType *string) ([]Coin, error) {
	var (
		all    []Coin
		cursor *types.ObjectID
	)
	for {
		page, err := c.GetCoins(ctx, owner, coinType, cursor, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return all, nil
		}
		if cursor != nil && *cursor == *page.NextCursor {
			// A node that repeats its cursor would loop forever.
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// GetBalance returns the total balance of coinType owned by owner.
func (c *Client) GetBalance(ctx context.Context, owner types.AccountAddress, coinType *string) (*Balance, error) {
	var bal Balance
	if err := c.call(ctx, MethodGetBalance, &bal, owner, coinType); err != nil {
		return nil, err
	}
	return &bal, nil
}
