// Package chain declares the on-chain collaborators the keeper talks to.
// Implementations live in evm (JSON-RPC) and simchain (in-memory).
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// CycleStore is the read side of the recurring order contract.
// GetMinReturn returns a *domain.RevertError while the next trade is not due.
type CycleStore interface {
	Address() common.Address
	IsTaskSubmitted(ctx context.Context, order domain.Order, id domain.TaskID) (bool, error)
	GetMinReturn(ctx context.Context, order domain.Order) (*big.Int, error)
}

// CycleWriter mutates cycles on behalf of an order owner.
type CycleWriter interface {
	Submit(ctx context.Context, owner common.Address, order domain.SubmitOrder) (domain.SubmittedTask, error)
	SubmitAndExec(ctx context.Context, owner common.Address, order domain.SubmitOrder, route domain.Route) (domain.SubmittedTask, error)
	Cancel(ctx context.Context, order domain.Order, id domain.TaskID) error
	EditNumTrades(ctx context.Context, order domain.Order, id domain.TaskID, tradesLeft uint64) (domain.SubmittedTask, error)
}

// Quoter returns expected swap outputs per venue.
type Quoter interface {
	AggregatorReturn(ctx context.Context, in, out common.Address, amount *big.Int, feeBps uint64, hint []byte) (*big.Int, error)
	RouterReturn(ctx context.Context, router common.Address, amount *big.Int, path []common.Address, feeBps uint64) (*big.Int, error)
}

// Automation is the executor dispatch entry point.
type Automation interface {
	CanExec(ctx context.Context, executor common.Address) (bool, error)
	EstimateExecGas(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (uint64, error)
	EstimateExecGasDebit(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (*big.Int, error)
	Exec(ctx context.Context, target common.Address, data domain.FinalPayload, feeToken common.Address) (common.Hash, error)
}

// PriceOracle converts amounts between assets.
type PriceOracle interface {
	ExpectedReturnAmount(ctx context.Context, amount *big.Int, from, to common.Address) (*big.Int, error)
}

// TokenReader reads balances and allowances.
type TokenReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// GasPricer returns the gas price used to value the executor's work.
type GasPricer interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// TaskFeed streams cycle store task events starting at a block cursor.
// It returns the events and the cursor to pass on the next call.
type TaskFeed interface {
	Tasks(ctx context.Context, fromBlock uint64) ([]domain.SubmittedTask, uint64, error)
}
