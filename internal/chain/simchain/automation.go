package simchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/payload"
	"go.uber.org/zap"
)

var (
	DefaultRouterA = common.HexToAddress("0x0000000000000000000000000000000000000a1a")
	DefaultRouterB = common.HexToAddress("0x0000000000000000000000000000000000000b1b")
)

const revertFeeToken = "Automation: fee token mismatch"

// settlement is the computed outcome of one trade.
type settlement struct {
	swapIn   *big.Int
	gross    *big.Int
	platform *big.Int
	net      *big.Int
	userOut  *big.Int
}

// CanExec reports whether executor is whitelisted.
func (c *Chain) CanExec(_ context.Context, executor common.Address) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executors[executor], nil
}

// EstimateExecGas dry runs exec as executor and returns the gas it would use.
func (c *Chain) EstimateExecGas(_ context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, _, err := c.prepare(executor, target, data, feeToken)
	if err != nil {
		return 0, err
	}
	return execGas(call.Path), nil
}

// EstimateExecGasDebit dry runs exec and prices the gas in feeToken.
func (c *Chain) EstimateExecGasDebit(_ context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, _, err := c.prepare(executor, target, data, feeToken)
	if err != nil {
		return nil, err
	}
	wei := new(big.Int).Mul(new(big.Int).SetUint64(execGas(call.Path)), c.gasPrice)
	return c.convert(wei, domain.NativeAsset, feeToken)
}

// Exec settles one trade and replaces the task with its advanced successor.
// The task is checked and advanced under one lock so a payload executes at most once.
func (c *Chain) Exec(_ context.Context, target common.Address, data domain.FinalPayload, feeToken common.Address) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, s, err := c.prepare(c.sender, target, data, feeToken)
	if err != nil {
		return common.Hash{}, err
	}

	next, err := call.Order.Advance(c.now)
	if err != nil {
		return common.Hash{}, err
	}

	c.apply(call.Order, call.Fee, s, c.sender)
	c.remove(call.TaskID)
	hash := c.txHash(data)

	c.l.Info("trade executed",
		zap.Stringer("task_id", call.TaskID),
		zap.String("venue", call.Venue.String()),
		zap.Stringer("output", s.userOut),
		zap.Stringer("fee", call.Fee.Amount),
		zap.Uint64("trades_left", next.TradesLeft))

	if next.TradesLeft > 0 {
		if _, err := c.store(next, domain.TaskEventSubmitted); err != nil {
			return common.Hash{}, err
		}
	} else {
		c.block++
	}
	return hash, nil
}

// prepare runs every check exec performs and computes the settlement without applying it.
func (c *Chain) prepare(executor, target common.Address, data []byte, feeToken common.Address) (payload.Call, settlement, error) {
	if !c.executors[executor] {
		return payload.Call{}, settlement{}, domain.NewRevert(revertExecutorNotFound)
	}
	if target != c.address {
		return payload.Call{}, settlement{}, domain.NewRevert(revertWrongTarget)
	}

	call, err := payload.Decode(data)
	if err != nil {
		return payload.Call{}, settlement{}, domain.NewRevert(err.Error())
	}
	if domain.FeeAsset(call.Order, call.Fee.IsOutToken) != feeToken {
		return payload.Call{}, settlement{}, domain.NewRevert(revertFeeToken)
	}

	live, err := c.isLive(call.Order, call.TaskID)
	if err != nil {
		return payload.Call{}, settlement{}, err
	}
	if !live {
		return payload.Call{}, settlement{}, domain.NewRevert(revertTaskNotFound)
	}

	minOut, err := c.minReturn(call.Order)
	if err != nil {
		return payload.Call{}, settlement{}, err
	}

	s, err := c.settle(call.Order, call.Venue, call.Path, call.Fee)
	if err != nil {
		return payload.Call{}, settlement{}, err
	}
	if s.net.Cmp(minOut) < 0 {
		return payload.Call{}, settlement{}, domain.NewRevert(revertInsufficientOut)
	}
	return call, s, nil
}

// swap settles one trade of order. Nothing changes unless apply is set.
func (c *Chain) swap(order domain.Order, venue domain.Venue, path []common.Address, fee domain.Fee, feeRecipient common.Address, apply bool) (*big.Int, error) {
	s, err := c.settle(order, venue, path, fee)
	if err != nil {
		return nil, err
	}
	if apply {
		c.apply(order, fee, s, feeRecipient)
	}
	return s.userOut, nil
}

func (c *Chain) settle(order domain.Order, venue domain.Venue, path []common.Address, fee domain.Fee) (settlement, error) {
	amount := order.AmountPerTrade
	if order.IsNativeIn() {
		if c.balance(domain.NativeAsset, c.address).Cmp(amount) < 0 {
			return settlement{}, domain.NewRevert(revertDeposit)
		}
	} else {
		if c.balance(order.InToken, order.Owner).Cmp(amount) < 0 {
			return settlement{}, domain.NewRevert(revertBalance)
		}
		if c.allowance(order.InToken, order.Owner, c.address).Cmp(amount) < 0 {
			return settlement{}, domain.NewRevert(revertAllowance)
		}
	}

	feeAmount := fee.Amount
	if feeAmount == nil {
		feeAmount = new(big.Int)
	}

	swapIn := new(big.Int).Set(amount)
	if !fee.IsOutToken {
		if feeAmount.Cmp(amount) >= 0 {
			return settlement{}, domain.NewRevert(revertFeeTooHigh)
		}
		swapIn.Sub(swapIn, feeAmount)
	}

	var (
		gross *big.Int
		err   error
	)
	switch venue {
	case domain.VenueAggregator:
		gross, err = c.aggregatorGross(order.InToken, order.OutToken, swapIn)
	case domain.VenueRouterA, domain.VenueRouterB:
		if len(path) < 2 || path[0] != order.InToken || path[len(path)-1] != order.OutToken {
			return settlement{}, domain.NewRevert(revertNoLiquidity)
		}
		gross, err = c.routerGross(c.router(venue), swapIn, path)
	default:
		return settlement{}, domain.NewRevert(revertUnknownVenue)
	}
	if err != nil {
		return settlement{}, err
	}

	platform := platformCut(gross, order.PlatformFeeBps)
	net := new(big.Int).Sub(gross, platform)
	userOut := new(big.Int).Set(net)
	if fee.IsOutToken {
		if feeAmount.Cmp(net) > 0 {
			return settlement{}, domain.NewRevert(revertFeeTooHigh)
		}
		userOut.Sub(userOut, feeAmount)
	}

	return settlement{swapIn: swapIn, gross: gross, platform: platform, net: net, userOut: userOut}, nil
}

func (c *Chain) apply(order domain.Order, fee domain.Fee, s settlement, feeRecipient common.Address) {
	amount := order.AmountPerTrade
	if order.IsNativeIn() {
		c.debit(domain.NativeAsset, c.address, amount)
	} else {
		c.spendAllowance(order.InToken, order.Owner, c.address, amount)
		c.debit(order.InToken, order.Owner, amount)
	}

	if fee.Amount != nil && fee.Amount.Sign() > 0 {
		c.credit(domain.FeeAsset(order, fee.IsOutToken), feeRecipient, fee.Amount)
	}
	if s.platform.Sign() > 0 {
		c.credit(order.OutToken, order.PlatformWallet, s.platform)
	}
	c.credit(order.OutToken, order.Owner, s.userOut)
}

func (c *Chain) router(v domain.Venue) common.Address {
	if v == domain.VenueRouterB {
		return DefaultRouterB
	}
	return DefaultRouterA
}

func execGas(path []common.Address) uint64 {
	hops := 0
	if len(path) > 1 {
		hops = len(path) - 1
	}
	return baseExecGas + hopExecGas*uint64(hops)
}
