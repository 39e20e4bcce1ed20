package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/chain"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

var _ chain.CycleWriter = (*Client)(nil)

// IsTaskSubmitted asks the cycle store whether id is the live instance of order.
func (c *Client) IsTaskSubmitted(ctx context.Context, order domain.Order, id domain.TaskID) (bool, error) {
	values, err := c.call(ctx, common.Address{}, c.cfg.CycleStore, contracts.DCA, "isTaskSubmitted", contracts.FromOrder(order), id.BigInt())
	if err != nil {
		return false, err
	}
	ok, isBool := values[0].(bool)
	if !isBool {
		return false, errors.Errorf("isTaskSubmitted returned %T", values[0])
	}
	return ok, nil
}

// GetMinReturn returns the contract's minimum acceptable output. It reverts while the trade is not due.
func (c *Client) GetMinReturn(ctx context.Context, order domain.Order) (*big.Int, error) {
	return c.callBigInt(ctx, common.Address{}, c.cfg.CycleStore, contracts.DCA, "getMinReturn", contracts.FromOrder(order))
}

// Submit opens a cycle for the signer. Native input cycles send the full deposit.
func (c *Client) Submit(ctx context.Context, owner common.Address, s domain.SubmitOrder) (domain.SubmittedTask, error) {
	if err := c.checkSubmit(owner, s); err != nil {
		return domain.SubmittedTask{}, err
	}
	data, err := contracts.DCA.Pack("submit", contracts.FromSubmitOrder(s), false)
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "pack submit")
	}
	receipt, err := c.transact(ctx, c.cfg.CycleStore, depositValue(s), data)
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "submit")
	}
	return c.taskFromReceipt(receipt)
}

// SubmitAndExec opens a cycle and executes the first trade through route.
// The minimum return passed to the contract is the current quote less MinSlippage.
func (c *Client) SubmitAndExec(ctx context.Context, owner common.Address, s domain.SubmitOrder, route domain.Route) (domain.SubmittedTask, error) {
	if err := c.checkSubmit(owner, s); err != nil {
		return domain.SubmittedTask{}, err
	}

	quote, err := c.quoteRoute(ctx, s, route)
	if err != nil {
		return domain.SubmittedTask{}, err
	}
	minReturn := new(big.Int).Mul(quote, new(big.Int).SetUint64(domain.BpsDenominator-s.MinSlippage))
	minReturn.Div(minReturn, big.NewInt(domain.BpsDenominator))

	data, err := contracts.DCA.Pack("submitAndExec", contracts.FromSubmitOrder(s), route.Venue.Code(), minReturn, route.Venue.EncodePath(route.Path))
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "pack submitAndExec")
	}
	receipt, err := c.transact(ctx, c.cfg.CycleStore, depositValue(s), data)
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "submit and exec")
	}
	return c.taskFromReceipt(receipt)
}

// Cancel removes a live task.
func (c *Client) Cancel(ctx context.Context, order domain.Order, id domain.TaskID) error {
	if err := c.checkOwner(order.Owner); err != nil {
		return err
	}
	data, err := contracts.DCA.Pack("cancel", contracts.FromOrder(order), id.BigInt())
	if err != nil {
		return errors.Wrap(err, "pack cancel")
	}
	if _, err := c.transact(ctx, c.cfg.CycleStore, nil, data); err != nil {
		return errors.Wrap(err, "cancel")
	}
	return nil
}

// EditNumTrades changes the remaining trade count. Native top ups are sent as value.
func (c *Client) EditNumTrades(ctx context.Context, order domain.Order, id domain.TaskID, tradesLeft uint64) (domain.SubmittedTask, error) {
	if err := c.checkOwner(order.Owner); err != nil {
		return domain.SubmittedTask{}, err
	}
	if tradesLeft == 0 {
		return domain.SubmittedTask{}, domain.ErrInvalidNumTrades
	}
	data, err := contracts.DCA.Pack("editNumTrades", contracts.FromOrder(order), id.BigInt(), new(big.Int).SetUint64(tradesLeft))
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "pack editNumTrades")
	}

	var value *big.Int
	if order.IsNativeIn() && tradesLeft > order.TradesLeft {
		value = new(big.Int).Mul(order.AmountPerTrade, new(big.Int).SetUint64(tradesLeft-order.TradesLeft))
	}
	receipt, err := c.transact(ctx, c.cfg.CycleStore, value, data)
	if err != nil {
		return domain.SubmittedTask{}, errors.Wrap(err, "edit num trades")
	}
	return c.taskFromReceipt(receipt)
}

func (c *Client) checkSubmit(owner common.Address, s domain.SubmitOrder) error {
	if err := s.Validate(); err != nil {
		return errors.Wrap(err, "invalid order")
	}
	return c.checkOwner(owner)
}

func (c *Client) checkOwner(owner common.Address) error {
	if c.signer == nil {
		return errors.New("no signer configured")
	}
	if c.signer.Address() != owner {
		return errors.Errorf("owner %s is not the configured signer %s", owner.Hex(), c.signer.Address().Hex())
	}
	return nil
}

func (c *Client) quoteRoute(ctx context.Context, s domain.SubmitOrder, route domain.Route) (*big.Int, error) {
	if !route.Venue.IsRouter() {
		return c.AggregatorReturn(ctx, s.InToken, s.OutToken, s.AmountPerTrade, s.PlatformFeeBps, []byte{})
	}
	router, ok := c.cfg.routerFor(route.Venue)
	if !ok {
		return nil, errors.Errorf("no router configured for %s", route.Venue)
	}
	return c.RouterReturn(ctx, router, s.AmountPerTrade, route.Path, s.PlatformFeeBps)
}

// taskFromReceipt returns the last task event the transaction emitted.
func (c *Client) taskFromReceipt(receipt *types.Receipt) (domain.SubmittedTask, error) {
	var (
		task  domain.SubmittedTask
		found bool
	)
	for _, lg := range receipt.Logs {
		if lg.Address != c.cfg.CycleStore {
			continue
		}
		t, ok, err := parseTaskLog(*lg)
		if err != nil {
			return domain.SubmittedTask{}, err
		}
		if ok {
			task, found = t, true
		}
	}
	if !found {
		// a single trade cycle completes inside submitAndExec and leaves no live task
		c.l.Debug("transaction emitted no task event", zap.String("hash", receipt.TxHash.Hex()))
		var block uint64
		if receipt.BlockNumber != nil {
			block = receipt.BlockNumber.Uint64()
		}
		return domain.SubmittedTask{Block: block}, nil
	}
	return task, nil
}

func depositValue(s domain.SubmitOrder) *big.Int {
	if s.InToken != domain.NativeAsset {
		return nil
	}
	return s.TotalDeposit()
}
