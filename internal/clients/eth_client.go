package clients

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// NewEthClient dials a JSON-RPC endpoint and checks it answers.
func NewEthClient(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc")
	}
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "rpc chain id")
	}
	return client, nil
}
