// Package keeper runs the full decision pipeline for one task: eligibility,
// route selection, return validation, executor check, and the two-pass fee
// estimate that produces the final exec payload.
package keeper

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/eligibility"
	"github.com/vadiminshakov/dcakeeper/internal/services/fee"
	"github.com/vadiminshakov/dcakeeper/internal/services/payload"
	"github.com/vadiminshakov/dcakeeper/internal/services/slippage"
	"go.uber.org/zap"
)

type checker interface {
	Check(ctx context.Context, order domain.Order, id domain.TaskID) (eligibility.Result, error)
}

type selector interface {
	Select(ctx context.Context, order domain.Order) (domain.Quote, error)
}

type executorGate interface {
	CanExec(ctx context.Context, executor common.Address) (bool, error)
}

type estimator interface {
	IsOutToken() bool
	Estimate(ctx context.Context, order domain.Order, draft domain.DraftPayload) (domain.Fee, error)
}

// Config holds keeper parameters.
type Config struct {
	Executor    common.Address
	CallTimeout time.Duration
}

// Keeper evaluates tasks. It never mutates chain state and is safe for concurrent use.
type Keeper struct {
	l         *zap.Logger
	cfg       Config
	checker   checker
	selector  selector
	gate      executorGate
	estimator estimator
}

// New creates a Keeper.
func New(l *zap.Logger, cfg Config, c checker, s selector, gate executorGate, e estimator) *Keeper {
	return &Keeper{l: l, cfg: cfg, checker: c, selector: s, gate: gate, estimator: e}
}

// CanExec decides whether the task can execute and builds its final payload.
// Not-yet-executable outcomes come back as a Decision with a Reason; the
// returned error is reserved for infrastructure failures.
func (k *Keeper) CanExec(ctx context.Context, order domain.Order, id domain.TaskID) (domain.Decision, error) {
	l := k.l.With(zap.Stringer("task_id", id), zap.String("owner", order.Owner.Hex()))

	var elig eligibility.Result
	err := k.step(ctx, func(ctx context.Context) (err error) {
		elig, err = k.checker.Check(ctx, order, id)
		return err
	})
	if err != nil {
		return domain.Decision{}, errors.Wrap(err, "eligibility")
	}
	if !elig.Eligible() {
		l.Debug("task not eligible", zap.String("reason", string(elig.Reason)))
		return domain.NotOK(elig.Reason), nil
	}

	var quote domain.Quote
	err = k.step(ctx, func(ctx context.Context) (err error) {
		quote, err = k.selector.Select(ctx, order)
		return err
	})
	if err != nil {
		return domain.Decision{}, errors.Wrap(err, "route")
	}

	if quote.Amount == nil || quote.Amount.Sign() == 0 || !slippage.Sufficient(quote.Amount, elig.MinReturn) {
		l.Debug("best route below min return",
			zap.String("venue", quote.Venue.String()),
			zap.Stringer("best", quote.Amount),
			zap.Stringer("min_return", elig.MinReturn))
		return domain.Decision{Reason: domain.ReasonInsufficientReturn, Quote: &quote, MinReturn: elig.MinReturn}, nil
	}

	var canExec bool
	err = k.step(ctx, func(ctx context.Context) (err error) {
		canExec, err = k.gate.CanExec(ctx, k.cfg.Executor)
		return err
	})
	if err != nil {
		return domain.Decision{}, errors.Wrap(err, "can exec")
	}
	if !canExec {
		return domain.Decision{Reason: domain.ReasonExecutorCannotExec, Quote: &quote, MinReturn: elig.MinReturn}, nil
	}

	route := quote.Route()
	draft, err := payload.Draft(order, id, route, k.estimator.IsOutToken())
	if err != nil {
		return domain.Decision{}, err
	}

	var realFee domain.Fee
	err = k.step(ctx, func(ctx context.Context) (err error) {
		realFee, err = k.estimator.Estimate(ctx, order, draft)
		return err
	})
	if err != nil {
		var rej *fee.Rejection
		if errors.As(err, &rej) {
			l.Info("fee estimate reverted", zap.String("reason", string(rej.Reason)))
			return domain.Decision{Reason: rej.Reason, Quote: &quote, MinReturn: elig.MinReturn}, nil
		}
		return domain.Decision{}, errors.Wrap(err, "fee")
	}

	final, err := payload.Final(order, id, route, realFee)
	if err != nil {
		return domain.Decision{}, err
	}

	l.Debug("task executable",
		zap.String("venue", quote.Venue.String()),
		zap.Stringer("output", quote.Amount),
		zap.Stringer("fee", realFee.Amount))

	return domain.Decision{Payload: final, Quote: &quote, MinReturn: elig.MinReturn, Fee: &realFee}, nil
}

// step runs fn under the per call timeout.
func (k *Keeper) step(ctx context.Context, fn func(ctx context.Context) error) error {
	if k.cfg.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, k.cfg.CallTimeout)
	defer cancel()
	return fn(ctx)
}
