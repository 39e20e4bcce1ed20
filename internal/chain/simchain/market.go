package simchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

const revertNoPrice = "Oracle: no price"

// AggregatorReturn quotes the aggregator net of the platform fee. The hint is ignored.
func (c *Chain) AggregatorReturn(_ context.Context, in, out common.Address, amount *big.Int, feeBps uint64, _ []byte) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggregatorQuote(in, out, amount, feeBps)
}

// RouterReturn quotes a router path net of the platform fee.
func (c *Chain) RouterReturn(_ context.Context, router common.Address, amount *big.Int, path []common.Address, feeBps uint64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gross, err := c.routerGross(router, amount, path)
	if err != nil {
		return nil, err
	}
	return netOfFee(gross, feeBps), nil
}

// ExpectedReturnAmount converts through native oracle prices.
func (c *Chain) ExpectedReturnAmount(_ context.Context, amount *big.Int, from, to common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convert(amount, from, to)
}

// GasPrice returns the configured gas price.
func (c *Chain) GasPrice(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.gasPrice), nil
}

// SetGasPrice changes the gas price.
func (c *Chain) SetGasPrice(wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasPrice = new(big.Int).Set(wei)
}

// BalanceOf returns a token balance.
func (c *Chain) BalanceOf(_ context.Context, token, owner common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance(token, owner), nil
}

// Allowance returns what spender may pull from owner.
func (c *Chain) Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowance(token, owner, spender), nil
}

// NativeBalance returns the native coin balance of account.
func (c *Chain) NativeBalance(_ context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance(domain.NativeAsset, account), nil
}

func (c *Chain) aggregatorQuote(in, out common.Address, amount *big.Int, feeBps uint64) (*big.Int, error) {
	gross, err := c.aggregatorGross(in, out, amount)
	if err != nil {
		return nil, err
	}
	return netOfFee(gross, feeBps), nil
}

func (c *Chain) aggregatorGross(in, out common.Address, amount *big.Int) (*big.Int, error) {
	r, ok := c.aggRates[pairKey{in, out}]
	if !ok {
		return nil, domain.NewRevert(revertNoLiquidity)
	}
	return r.apply(amount), nil
}

func (c *Chain) routerGross(router common.Address, amount *big.Int, path []common.Address) (*big.Int, error) {
	if len(path) < 2 {
		return nil, domain.NewRevert(revertNoLiquidity)
	}
	rates, ok := c.routerRates[router]
	if !ok {
		return nil, domain.NewRevert(revertNoLiquidity)
	}
	out := new(big.Int).Set(amount)
	for i := 0; i+1 < len(path); i++ {
		r, ok := rates[pairKey{path[i], path[i+1]}]
		if !ok {
			return nil, domain.NewRevert(revertNoLiquidity)
		}
		out = r.apply(out)
	}
	return out, nil
}

func (c *Chain) convert(amount *big.Int, from, to common.Address) (*big.Int, error) {
	if from == to {
		return new(big.Int).Set(amount), nil
	}
	native := amount
	if from != domain.NativeAsset {
		r, ok := c.oracleRates[from]
		if !ok || r.num.Sign() == 0 {
			return nil, domain.NewRevert(revertNoPrice)
		}
		native = rate{num: r.den, den: r.num}.apply(amount)
	}
	if to == domain.NativeAsset {
		return new(big.Int).Set(native), nil
	}
	r, ok := c.oracleRates[to]
	if !ok {
		return nil, domain.NewRevert(revertNoPrice)
	}
	return r.apply(native), nil
}

func platformCut(gross *big.Int, feeBps uint64) *big.Int {
	cut := new(big.Int).Mul(gross, new(big.Int).SetUint64(feeBps))
	return cut.Div(cut, big.NewInt(domain.BpsDenominator))
}

func netOfFee(gross *big.Int, feeBps uint64) *big.Int {
	return new(big.Int).Sub(gross, platformCut(gross, feeBps))
}
