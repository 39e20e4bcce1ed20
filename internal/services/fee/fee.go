// Package fee estimates the executor reimbursement charged to a trade.
package fee

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// Mode selects how the real fee is derived from the draft payload.
type Mode string

const (
	// ModeOracle estimates gas, prices it and converts through the oracle.
	ModeOracle Mode = "oracle"
	// ModeDebit asks the automation contract for the debit in the fee asset.
	ModeDebit Mode = "debit"

	inputBufferPercent = 2
)

type automation interface {
	EstimateExecGas(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (uint64, error)
	EstimateExecGasDebit(ctx context.Context, executor, target common.Address, data domain.DraftPayload, feeToken common.Address) (*big.Int, error)
}

type oracle interface {
	ExpectedReturnAmount(ctx context.Context, amount *big.Int, from, to common.Address) (*big.Int, error)
}

type gasPricer interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Config holds the static parameters of an Estimator.
type Config struct {
	Mode        Mode
	Executor    common.Address
	Target      common.Address
	NativeAsset common.Address
	IsOutToken  bool
}

// Rejection is a fee estimate that reverted. The task is not executable and Reason says why.
type Rejection struct {
	Reason domain.Reason
	Err    error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("fee estimate rejected: %s", r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Err }

// Estimator prices a draft payload into a real fee.
type Estimator struct {
	cfg        Config
	automation automation
	oracle     oracle
	gas        gasPricer
}

// NewEstimator creates an Estimator.
func NewEstimator(cfg Config, a automation, o oracle, gas gasPricer) (*Estimator, error) {
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeOracle
	case ModeOracle, ModeDebit:
	default:
		return nil, fmt.Errorf("unknown fee mode %q", cfg.Mode)
	}
	if cfg.NativeAsset == (common.Address{}) {
		cfg.NativeAsset = domain.NativeAsset
	}
	return &Estimator{cfg: cfg, automation: a, oracle: o, gas: gas}, nil
}

// IsOutToken reports which asset fees are charged in.
func (e *Estimator) IsOutToken() bool {
	return e.cfg.IsOutToken
}

// Estimate returns the real fee for the order given its placeholder payload.
// A reverting estimate yields a *Rejection and the conversion step is skipped.
func (e *Estimator) Estimate(ctx context.Context, order domain.Order, draft domain.DraftPayload) (domain.Fee, error) {
	feeToken := domain.FeeAsset(order, e.cfg.IsOutToken)

	var (
		amount *big.Int
		err    error
	)
	switch e.cfg.Mode {
	case ModeDebit:
		amount, err = e.automation.EstimateExecGasDebit(ctx, e.cfg.Executor, e.cfg.Target, draft, feeToken)
		if err != nil {
			return domain.Fee{}, rejectOrWrap(err, "estimate exec gas debit")
		}
	default:
		amount, err = e.viaOracle(ctx, draft, feeToken)
		if err != nil {
			return domain.Fee{}, err
		}
	}

	return domain.NewFee(amount, e.cfg.IsOutToken), nil
}

func (e *Estimator) viaOracle(ctx context.Context, draft domain.DraftPayload, feeToken common.Address) (*big.Int, error) {
	gasUsed, err := e.automation.EstimateExecGas(ctx, e.cfg.Executor, e.cfg.Target, draft, feeToken)
	if err != nil {
		return nil, rejectOrWrap(err, "estimate exec gas")
	}

	gasPrice, err := e.gas.GasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "gas price")
	}

	wei := new(big.Int).Mul(BufferedGas(gasUsed, e.cfg.IsOutToken), gasPrice)
	if feeToken == e.cfg.NativeAsset {
		return wei, nil
	}

	amount, err := e.oracle.ExpectedReturnAmount(ctx, wei, e.cfg.NativeAsset, feeToken)
	if err != nil {
		return nil, errors.Wrap(err, "oracle expected return")
	}
	return amount, nil
}

// BufferedGas pads an input asset fee estimate by 2%. Output asset fees use the raw estimate.
func BufferedGas(estimate uint64, isOutToken bool) *big.Int {
	gas := new(big.Int).SetUint64(estimate)
	if isOutToken {
		return gas
	}
	buffer := new(big.Int).Mul(gas, big.NewInt(inputBufferPercent))
	buffer.Div(buffer, big.NewInt(100))
	return gas.Add(gas, buffer)
}

func rejectOrWrap(err error, msg string) error {
	if rev, ok := domain.AsRevert(err); ok {
		reason := domain.Reason(rev.Reason)
		if reason == "" {
			reason = domain.ReasonExecutorCannotExec
		}
		return &Rejection{Reason: reason, Err: err}
	}
	return errors.Wrap(err, msg)
}
