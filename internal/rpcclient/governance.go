package rpcclient

import (
	"context"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// GetReferenceGasPrice returns the reference gas price of the current epoch.
func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price types.BigUint64
	if err := c.call(ctx, MethodGetReferenceGasPrice, &price); err != nil {
		return 0, err
	}
	return uint64(price), nil
}
