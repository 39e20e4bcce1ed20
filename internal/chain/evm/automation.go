package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// CanExec asks the automation contract whether executor may dispatch.
func (c *Client) CanExec(ctx context.Context, executor common.Address) (bool, error) {
	values, err := c.call(ctx, common.Address{}, c.cfg.Automation, contracts.Automation, "canExec", executor)
	if err != nil {
		return false, err
	}
	ok, isBool := values[0].(bool)
	if !isBool {
		return false, errors.Errorf("canExec returned %T", values[0])
	}
	return ok, nil
}

// EstimateExecGas estimates the automation exec call as executor.
func (c *Client) EstimateExecGas(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (uint64, error) {
	input, err := contracts.Automation.Pack("exec", target, []byte(data), feeToken)
	if err != nil {
		return 0, errors.Wrap(err, "pack automation exec")
	}
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: executor, To: &c.cfg.Automation, Data: input})
	if err != nil {
		return 0, decodeRevert(err)
	}
	return gas, nil
}

// EstimateExecGasDebit returns the debit the automation contract would charge, in feeToken.
func (c *Client) EstimateExecGasDebit(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (*big.Int, error) {
	values, err := c.call(ctx, executor, c.cfg.Automation, contracts.Automation, "estimateExecGasDebit", target, []byte(data), feeToken)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, errors.Errorf("estimateExecGasDebit returned %d values", len(values))
	}
	debit, ok := values[1].(*big.Int)
	if !ok {
		return nil, errors.Errorf("estimateExecGasDebit returned %T", values[1])
	}
	return debit, nil
}

// Exec dispatches the final payload through the automation contract.
func (c *Client) Exec(ctx context.Context, target common.Address, data domain.FinalPayload, feeToken common.Address) (common.Hash, error) {
	input, err := contracts.Automation.Pack("exec", target, []byte(data), feeToken)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "pack automation exec")
	}
	receipt, err := c.transact(ctx, c.cfg.Automation, nil, input)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}
