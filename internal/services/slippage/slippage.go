// Package slippage computes the minimum acceptable output of a trade and
// checks quoted outputs against it.
package slippage

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// ErrNotDue is returned while the next trade of a cycle is not due yet.
var ErrNotDue = errors.New("trade is not due yet")

type minReturnSource interface {
	GetMinReturn(ctx context.Context, order domain.Order) (*big.Int, error)
}

// Validator wraps the cycle store's min return computation.
type Validator struct {
	store minReturnSource
}

// NewValidator creates a Validator.
func NewValidator(store minReturnSource) *Validator {
	return &Validator{store: store}
}

// MinAcceptableOutput returns the minimum output the trade must produce.
// A revert from the store means the time gate is closed and maps to ErrNotDue.
func (v *Validator) MinAcceptableOutput(ctx context.Context, order domain.Order) (*big.Int, error) {
	minReturn, err := v.store.GetMinReturn(ctx, order)
	if err != nil {
		if rev, ok := domain.AsRevert(err); ok {
			return nil, errors.Wrap(ErrNotDue, rev.Error())
		}
		return nil, errors.Wrap(err, "get min return")
	}
	if minReturn == nil {
		return nil, errors.New("get min return: empty result")
	}
	return minReturn, nil
}

// Sufficient reports whether best covers minReturn. The difference is taken
// with signed big integer arithmetic so a shortfall is a negative number.
func Sufficient(best, minReturn *big.Int) bool {
	if best == nil {
		best = new(big.Int)
	}
	return new(big.Int).Sub(best, minReturn).Sign() >= 0
}
