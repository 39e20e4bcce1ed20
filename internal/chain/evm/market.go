package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// AggregatorReturn quotes the aggregator through the cycle store helper.
func (c *Client) AggregatorReturn(ctx context.Context, in, out common.Address, amount *big.Int, feeBps uint64, hint []byte) (*big.Int, error) {
	if hint == nil {
		hint = []byte{}
	}
	return c.callBigInt(ctx, common.Address{}, c.cfg.CycleStore, contracts.DCA, "getExpectedReturnKyber",
		in, out, amount, new(big.Int).SetUint64(feeBps), hint)
}

// RouterReturn quotes a router path through the cycle store helper.
func (c *Client) RouterReturn(ctx context.Context, router common.Address, amount *big.Int, path []common.Address, feeBps uint64) (*big.Int, error) {
	return c.callBigInt(ctx, common.Address{}, c.cfg.CycleStore, contracts.DCA, "getExpectedReturnUniswap",
		router, amount, path, new(big.Int).SetUint64(feeBps))
}

// ExpectedReturnAmount converts amount of from into to using the price oracle.
func (c *Client) ExpectedReturnAmount(ctx context.Context, amount *big.Int, from, to common.Address) (*big.Int, error) {
	oracle, err := c.oracle(ctx)
	if err != nil {
		return nil, err
	}
	return c.callBigInt(ctx, common.Address{}, oracle, contracts.Oracle, "getExpectedReturnAmount", amount, from, to)
}

// oracle returns the configured oracle or asks the automation contract for it.
func (c *Client) oracle(ctx context.Context) (common.Address, error) {
	if c.cfg.Oracle != (common.Address{}) {
		return c.cfg.Oracle, nil
	}
	values, err := c.call(ctx, common.Address{}, c.cfg.Automation, contracts.Automation, "getOracleAggregator")
	if err != nil {
		return common.Address{}, errors.Wrap(err, "oracle aggregator")
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, errors.Errorf("getOracleAggregator returned %T", values[0])
	}
	return addr, nil
}

// OracleGasPrice reads the gas price feed. The feed answers in wei.
func (c *Client) OracleGasPrice(ctx context.Context) (*big.Int, error) {
	if c.cfg.GasPriceOracle == (common.Address{}) {
		return nil, errors.New("gas price oracle address is not configured")
	}
	answer, err := c.callBigInt(ctx, common.Address{}, c.cfg.GasPriceOracle, contracts.GasPriceOracle, "latestAnswer")
	if err != nil {
		return nil, err
	}
	if answer.Sign() <= 0 {
		return nil, errors.Errorf("gas price oracle answered %s", answer)
	}
	return answer, nil
}

// NodeGasPrice is the node's suggested gas price.
func (c *Client) NodeGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas price")
	}
	return price, nil
}

// BalanceOf reads an ERC20 balance. The native sentinel reads the account balance.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if token == domain.NativeAsset {
		return c.NativeBalance(ctx, owner)
	}
	return c.callBigInt(ctx, common.Address{}, token, contracts.ERC20, "balanceOf", owner)
}

// Allowance reads an ERC20 allowance.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.callBigInt(ctx, common.Address{}, token, contracts.ERC20, "allowance", owner, spender)
}

// NativeBalance reads the native coin balance at the latest block.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "balance at")
	}
	return bal, nil
}

// Approve lets spender pull amount of token from the signer.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := contracts.ERC20.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "pack approve")
	}
	receipt, err := c.transact(ctx, token, nil, data)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "approve")
	}
	return receipt.TxHash, nil
}
