// Package eligibility decides whether a scheduled trade may run now.
package eligibility

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/slippage"
)

type cycleStore interface {
	Address() common.Address
	IsTaskSubmitted(ctx context.Context, order domain.Order, id domain.TaskID) (bool, error)
	GetMinReturn(ctx context.Context, order domain.Order) (*big.Int, error)
}

type tokenReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Result is the outcome of the eligibility gates.
// MinReturn is set whenever the time gate passed.
type Result struct {
	Reason    domain.Reason
	MinReturn *big.Int
}

// Eligible reports whether all gates passed.
func (r Result) Eligible() bool {
	return r.Reason == ""
}

// Checker evaluates the existence, time and funding gates in that order.
type Checker struct {
	store     cycleStore
	tokens    tokenReader
	validator *slippage.Validator
}

// NewChecker creates a Checker.
func NewChecker(store cycleStore, tokens tokenReader) *Checker {
	return &Checker{
		store:     store,
		tokens:    tokens,
		validator: slippage.NewValidator(store),
	}
}

// Check runs the gates. Only infrastructure failures are returned as errors.
func (c *Checker) Check(ctx context.Context, order domain.Order, id domain.TaskID) (Result, error) {
	submitted, err := c.store.IsTaskSubmitted(ctx, order, id)
	if err != nil {
		return Result{}, errors.Wrap(err, "is task submitted")
	}
	if !submitted {
		return Result{Reason: domain.ReasonTaskNotFound}, nil
	}

	minReturn, err := c.validator.MinAcceptableOutput(ctx, order)
	if err != nil {
		if errors.Is(err, slippage.ErrNotDue) {
			return Result{Reason: domain.ReasonTimeNotPassed}, nil
		}
		return Result{}, err
	}

	reason, err := c.checkFunds(ctx, order)
	if err != nil {
		return Result{}, err
	}
	return Result{Reason: reason, MinReturn: minReturn}, nil
}

func (c *Checker) checkFunds(ctx context.Context, order domain.Order) (domain.Reason, error) {
	holder := c.store.Address()

	if order.IsNativeIn() {
		bal, err := c.tokens.NativeBalance(ctx, holder)
		if err != nil {
			return "", errors.Wrap(err, "native balance")
		}
		if bal.Cmp(order.AmountPerTrade) < 0 {
			return domain.ReasonInsufficientBalance, nil
		}
		return "", nil
	}

	bal, err := c.tokens.BalanceOf(ctx, order.InToken, order.Owner)
	if err != nil {
		return "", errors.Wrapf(err, "balance of %s", order.InToken.Hex())
	}
	if bal.Cmp(order.AmountPerTrade) < 0 {
		return domain.ReasonInsufficientBalance, nil
	}

	allowance, err := c.tokens.Allowance(ctx, order.InToken, order.Owner, holder)
	if err != nil {
		return "", errors.Wrapf(err, "allowance of %s", order.InToken.Hex())
	}
	if allowance.Cmp(order.AmountPerTrade) < 0 {
		return domain.ReasonInsufficientApproval, nil
	}
	return "", nil
}
