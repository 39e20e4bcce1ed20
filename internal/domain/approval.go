package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PendingApproval sums the allowance an owner still needs for the live cycles selling token.
func PendingApproval(tasks []SubmittedTask, owner, token common.Address) *big.Int {
	total := new(big.Int)
	for _, t := range tasks {
		if !t.Live() || t.Order.Owner != owner || t.Order.InToken != token {
			continue
		}
		total.Add(total, t.Order.Remaining())
	}
	return total
}
