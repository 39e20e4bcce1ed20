package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

var taskEvents = map[common.Hash]domain.TaskEventKind{
	contracts.DCA.Events["LogTaskSubmitted"].ID: domain.TaskEventSubmitted,
	contracts.DCA.Events["LogTaskUpdated"].ID:   domain.TaskEventUpdated,
	contracts.DCA.Events["LogTaskCancelled"].ID: domain.TaskEventCancelled,
}

var eventNames = map[domain.TaskEventKind]string{
	domain.TaskEventSubmitted: "LogTaskSubmitted",
	domain.TaskEventUpdated:   "LogTaskUpdated",
	domain.TaskEventCancelled: "LogTaskCancelled",
}

// Tasks scans cycle store events from fromBlock up to the head, at most MaxBlockRange blocks per call.
func (c *Client) Tasks(ctx context.Context, fromBlock uint64) ([]domain.SubmittedTask, uint64, error) {
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fromBlock, errors.Wrap(err, "block number")
	}
	if fromBlock > head {
		return nil, fromBlock, nil
	}

	to := head
	if to-fromBlock+1 > c.cfg.MaxBlockRange {
		to = fromBlock + c.cfg.MaxBlockRange - 1
	}

	topics := make([]common.Hash, 0, len(taskEvents))
	for id := range taskEvents {
		topics = append(topics, id)
	}
	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.cfg.CycleStore},
		Topics:    [][]common.Hash{topics},
	})
	if err != nil {
		return nil, fromBlock, errors.Wrap(err, "filter logs")
	}

	tasks := make([]domain.SubmittedTask, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		task, ok, err := parseTaskLog(lg)
		if err != nil {
			c.l.Error("skip undecodable task log", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}
		if ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, to + 1, nil
}

func parseTaskLog(lg types.Log) (domain.SubmittedTask, bool, error) {
	if len(lg.Topics) < 2 {
		return domain.SubmittedTask{}, false, nil
	}
	kind, ok := taskEvents[lg.Topics[0]]
	if !ok {
		return domain.SubmittedTask{}, false, nil
	}

	event := contracts.DCA.Events[eventNames[kind]]
	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return domain.SubmittedTask{}, false, errors.Wrapf(err, "unpack %s", event.Name)
	}
	if len(values) != 1 {
		return domain.SubmittedTask{}, false, errors.Errorf("%s carries %d values", event.Name, len(values))
	}
	order, err := abi.ConvertType(values[0], new(contracts.ExecOrder)).(*contracts.ExecOrder).ToOrder()
	if err != nil {
		return domain.SubmittedTask{}, false, errors.Wrapf(err, "decode %s", event.Name)
	}
	id, err := domain.TaskIDFromBig(new(big.Int).SetBytes(lg.Topics[1].Bytes()))
	if err != nil {
		return domain.SubmittedTask{}, false, errors.Wrapf(err, "decode %s", event.Name)
	}

	return domain.SubmittedTask{
		ID:    id,
		Order: order,
		Kind:  kind,
		Block: lg.BlockNumber,
	}, true, nil
}
