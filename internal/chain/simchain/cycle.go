package simchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/chain"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/slippage"
	"go.uber.org/zap"
)

var _ chain.CycleWriter = (*Chain)(nil)

const (
	revertTaskNotFound     = "DCA: task not submitted"
	revertNotDue           = "DCA: delay not passed"
	revertNoTrades         = "DCA: number of trades must be positive"
	revertDeposit          = "DCA: insufficient native deposit"
	revertInsufficientOut  = "DCA: insufficient output"
	revertFeeTooHigh       = "DCA: fee exceeds amount"
	revertBalance          = "DCA: insufficient balance"
	revertAllowance        = "DCA: insufficient allowance"
	revertNoLiquidity      = "DCA: no liquidity"
	revertUnknownVenue     = "DCA: unknown protocol"
	revertWrongTarget      = "Automation: unknown service"
	revertExecutorNotFound = ""
)

// IsTaskSubmitted reports whether id is the live instance of order.
func (c *Chain) IsTaskSubmitted(_ context.Context, order domain.Order, id domain.TaskID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLive(order, id)
}

func (c *Chain) isLive(order domain.Order, id domain.TaskID) (bool, error) {
	stored, ok := c.tasks[id]
	if !ok {
		return false, nil
	}
	h, err := contracts.TaskHash(order, id)
	if err != nil {
		return false, err
	}
	return h == stored, nil
}

// GetMinReturn applies the policy against the aggregator quote. It reverts while the trade is not due.
func (c *Chain) GetMinReturn(_ context.Context, order domain.Order) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minReturn(order)
}

func (c *Chain) minReturn(order domain.Order) (*big.Int, error) {
	ideal, err := c.aggregatorQuote(order.InToken, order.OutToken, order.AmountPerTrade, order.PlatformFeeBps)
	if err != nil {
		ideal = new(big.Int)
	}
	minOut, err := c.policy.MinReturn(order, c.now, ideal)
	if err != nil {
		if errors.Is(err, slippage.ErrNotDue) {
			return nil, domain.NewRevert(revertNotDue)
		}
		return nil, err
	}
	return minOut, nil
}

// Submit stores a new cycle. Native input cycles pull the full deposit from the owner.
// The first trade becomes due one delay after submission.
func (c *Chain) Submit(_ context.Context, owner common.Address, s domain.SubmitOrder) (domain.SubmittedTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, err := c.open(owner, s)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	order.LastExecutionTime = c.now
	return c.store(order, domain.TaskEventSubmitted)
}

// SubmitAndExec stores a new cycle and executes its first trade in the same call.
// The owner triggers this trade so no executor fee is charged.
func (c *Chain) SubmitAndExec(_ context.Context, owner common.Address, s domain.SubmitOrder, route domain.Route) (domain.SubmittedTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, err := c.open(owner, s)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	if _, err := c.swap(order, route.Venue, route.Venue.EncodePath(route.Path), domain.NewFee(new(big.Int), true), owner, true); err != nil {
		c.refund(order)
		return domain.SubmittedTask{}, err
	}

	next, err := order.Advance(c.now)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	if next.TradesLeft == 0 {
		c.block++
		return domain.SubmittedTask{Order: next, Kind: domain.TaskEventSubmitted, Block: c.block}, nil
	}
	return c.store(next, domain.TaskEventSubmitted)
}

// Cancel removes a live task and refunds the remaining native deposit.
func (c *Chain) Cancel(_ context.Context, order domain.Order, id domain.TaskID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	live, err := c.isLive(order, id)
	if err != nil {
		return err
	}
	if !live {
		return domain.NewRevert(revertTaskNotFound)
	}

	c.remove(id)
	c.refund(order)
	c.block++
	c.events = append(c.events, domain.SubmittedTask{ID: id, Order: order.Clone(), Kind: domain.TaskEventCancelled, Block: c.block})
	c.l.Debug("task cancelled", zap.Stringer("task_id", id))
	return nil
}

// EditNumTrades replaces a live task with one that has tradesLeft trades.
// Native deposits are topped up from or refunded to the owner.
func (c *Chain) EditNumTrades(_ context.Context, order domain.Order, id domain.TaskID, tradesLeft uint64) (domain.SubmittedTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	live, err := c.isLive(order, id)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	if !live {
		return domain.SubmittedTask{}, domain.NewRevert(revertTaskNotFound)
	}
	if tradesLeft == 0 {
		return domain.SubmittedTask{}, domain.NewRevert(revertNoTrades)
	}

	if order.IsNativeIn() {
		diff := new(big.Int).Mul(order.AmountPerTrade, new(big.Int).SetUint64(tradesLeft))
		diff.Sub(diff, order.Remaining())
		switch diff.Sign() {
		case 1:
			if !c.debit(domain.NativeAsset, order.Owner, diff) {
				return domain.SubmittedTask{}, domain.NewRevert(revertDeposit)
			}
			c.credit(domain.NativeAsset, c.address, diff)
		case -1:
			refund := new(big.Int).Neg(diff)
			c.debit(domain.NativeAsset, c.address, refund)
			c.credit(domain.NativeAsset, order.Owner, refund)
		}
	}

	c.remove(id)
	next := order.Clone()
	next.TradesLeft = tradesLeft
	return c.store(next, domain.TaskEventUpdated)
}

// Tasks implements the task feed over the in-memory event log.
func (c *Chain) Tasks(_ context.Context, fromBlock uint64) ([]domain.SubmittedTask, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.SubmittedTask
	for _, ev := range c.events {
		if ev.Block >= fromBlock {
			ev.Order = ev.Order.Clone()
			out = append(out, ev)
		}
	}
	return out, c.block + 1, nil
}

func (c *Chain) open(owner common.Address, s domain.SubmitOrder) (domain.Order, error) {
	order, err := domain.NewOrder(owner, s)
	if err != nil {
		return domain.Order{}, domain.NewRevert("DCA: " + err.Error())
	}
	if order.IsNativeIn() {
		deposit := s.TotalDeposit()
		if !c.debit(domain.NativeAsset, owner, deposit) {
			return domain.Order{}, domain.NewRevert(revertDeposit)
		}
		c.credit(domain.NativeAsset, c.address, deposit)
	}
	return order, nil
}

func (c *Chain) refund(order domain.Order) {
	if !order.IsNativeIn() {
		return
	}
	remaining := order.Remaining()
	if c.debit(domain.NativeAsset, c.address, remaining) {
		c.credit(domain.NativeAsset, order.Owner, remaining)
	}
}

func (c *Chain) store(order domain.Order, kind domain.TaskEventKind) (domain.SubmittedTask, error) {
	c.nextID++
	id := domain.TaskID(c.nextID)
	h, err := contracts.TaskHash(order, id)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	c.tasks[id] = h
	c.orders[id] = order.Clone()
	c.block++

	task := domain.SubmittedTask{ID: id, Order: order.Clone(), Kind: kind, Block: c.block}
	c.events = append(c.events, task)
	c.l.Debug("task stored", zap.Stringer("task_id", id), zap.String("kind", string(kind)), zap.Uint64("trades_left", order.TradesLeft))
	return task, nil
}

func (c *Chain) remove(id domain.TaskID) {
	delete(c.tasks, id)
	delete(c.orders, id)
}
