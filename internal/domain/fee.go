package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fee is the executor reimbursement encoded into exec.
type Fee struct {
	Amount     *big.Int `json:"amount"`
	SwapRate   *big.Int `json:"swap_rate"`
	IsOutToken bool     `json:"is_out_token"`
}

// PlaceholderFee sizes the draft payload before the real fee is known.
func PlaceholderFee(isOutToken bool) Fee {
	return Fee{Amount: big.NewInt(1), SwapRate: big.NewInt(0), IsOutToken: isOutToken}
}

// NewFee builds a fee with a zero swap rate hint.
func NewFee(amount *big.Int, isOutToken bool) Fee {
	return Fee{Amount: new(big.Int).Set(amount), SwapRate: big.NewInt(0), IsOutToken: isOutToken}
}

// FeeAsset returns the token the fee is charged in for the given flag.
func FeeAsset(o Order, isOutToken bool) common.Address {
	if isOutToken {
		return o.OutToken
	}
	return o.InToken
}
