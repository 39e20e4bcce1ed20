// Package evm implements the chain collaborators over JSON-RPC.
package evm

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMaxBlockRange = 5_000
	defaultReceiptPoll   = 2 * time.Second
)

// Backend is the subset of *ethclient.Client the adapters use.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config lists the contract addresses and feed limits.
type Config struct {
	CycleStore     common.Address
	Automation     common.Address
	Oracle         common.Address
	GasPriceOracle common.Address
	RouterA        common.Address
	RouterB        common.Address
	MaxBlockRange  uint64
	ReceiptPoll    time.Duration
}

func (c Config) routerFor(v domain.Venue) (common.Address, bool) {
	switch v {
	case domain.VenueRouterA:
		return c.RouterA, c.RouterA != (common.Address{})
	case domain.VenueRouterB:
		return c.RouterB, c.RouterB != (common.Address{})
	default:
		return common.Address{}, false
	}
}

// Client talks to the deployed contracts. Read methods need no signer.
type Client struct {
	l       *zap.Logger
	backend Backend
	cfg     Config
	signer  *Signer

	// sendMu serializes nonce assignment so parallel senders never share a nonce.
	sendMu    sync.Mutex
	nonce     uint64
	haveNonce bool
}

// NewClient creates a Client. signer may be nil for read only use.
func NewClient(l *zap.Logger, backend Backend, cfg Config, signer *Signer) *Client {
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = defaultMaxBlockRange
	}
	if cfg.ReceiptPoll <= 0 {
		cfg.ReceiptPoll = defaultReceiptPoll
	}
	return &Client{l: l, backend: backend, cfg: cfg, signer: signer}
}

// Address is the cycle store contract.
func (c *Client) Address() common.Address {
	return c.cfg.CycleStore
}

// call runs a read only method and unpacks its outputs.
func (c *Client) call(ctx context.Context, from, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, decodeRevert(err)
	}

	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(values) == 0 {
		return nil, errors.Errorf("%s returned no values", method)
	}
	return values, nil
}

func (c *Client) callBigInt(ctx context.Context, from, to common.Address, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	values, err := c.call(ctx, from, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("%s returned %T, want uint256", method, values[0])
	}
	return v, nil
}

// transact signs and sends a transaction, then waits for its receipt.
func (c *Client) transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, errors.New("no signer configured")
	}
	if value == nil {
		value = new(big.Int)
	}

	from := c.signer.Address()
	signed, err := c.send(ctx, from, to, value, data)
	if err != nil {
		return nil, err
	}

	c.l.Info("transaction sent",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", signed.Nonce()),
		zap.Uint64("gas", signed.Gas()))

	return c.waitMined(ctx, signed.Hash())
}

// send assigns the next nonce, signs and broadcasts under sendMu.
// The local counter covers transactions the node has not yet put in its pending pool.
func (c *Client) send(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "pending nonce")
	}
	if c.haveNonce && c.nonce > nonce {
		nonce = c.nonce
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas price")
	}
	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, decodeRevert(err)
	}
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "chain id")
	}

	signed, err := c.signer.Sign(types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data), chainID)
	if err != nil {
		return nil, err
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		// resync from the node on the next send
		c.haveNonce = false
		return nil, errors.Wrap(err, "send transaction")
	}
	c.nonce, c.haveNonce = nonce+1, true
	return signed, nil
}

func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.cfg.ReceiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, errors.Wrapf(newRevert(""), "transaction %s failed", hash.Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, errors.Wrap(err, "transaction receipt")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
