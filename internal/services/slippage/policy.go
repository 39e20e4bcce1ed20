package slippage

import (
	"math/big"

	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// Policy is the min return curve of a cycle store.
// It returns ErrNotDue until the order's delay has elapsed since its last execution.
type Policy interface {
	MinReturn(order domain.Order, now uint64, ideal *big.Int) (*big.Int, error)
}

// LinearPolicy widens the tolerated slippage from MinSlippage at the due time
// to MaxSlippage one further delay later, then stays at MaxSlippage.
// Orders that never executed are due immediately.
type LinearPolicy struct{}

// MinReturn implements Policy.
func (LinearPolicy) MinReturn(order domain.Order, now uint64, ideal *big.Int) (*big.Int, error) {
	if order.LastExecutionTime != 0 {
		due := order.LastExecutionTime + order.Delay
		if now < due {
			return nil, ErrNotDue
		}
	}

	bps := SlippageBps(order, now)
	out := new(big.Int).Mul(ideal, big.NewInt(int64(domain.BpsDenominator-bps)))
	return out.Div(out, big.NewInt(domain.BpsDenominator)), nil
}

// SlippageBps is the tolerated slippage for a due order at now.
func SlippageBps(order domain.Order, now uint64) uint64 {
	if order.LastExecutionTime == 0 || order.Delay == 0 || order.MaxSlippage <= order.MinSlippage {
		return order.MinSlippage
	}
	due := order.LastExecutionTime + order.Delay
	if now <= due {
		return order.MinSlippage
	}
	elapsed := now - due
	if elapsed >= order.Delay {
		return order.MaxSlippage
	}
	span := order.MaxSlippage - order.MinSlippage
	return order.MinSlippage + span*elapsed/order.Delay
}
