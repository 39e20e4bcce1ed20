package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

// ExecOrder mirrors the stored order tuple.
type ExecOrder struct {
	User              common.Address
	InToken           common.Address
	OutToken          common.Address
	AmountPerTrade    *big.Int
	NTradesLeft       *big.Int
	MinSlippage       *big.Int
	MaxSlippage       *big.Int
	Delay             *big.Int
	LastExecutionTime *big.Int
	PlatformWallet    common.Address
	PlatformFeeBps    *big.Int
}

// SubmitOrder mirrors the submission tuple.
type SubmitOrder struct {
	InToken        common.Address
	OutToken       common.Address
	AmountPerTrade *big.Int
	NumTrades      *big.Int
	MinSlippage    *big.Int
	MaxSlippage    *big.Int
	Delay          *big.Int
	PlatformWallet common.Address
	PlatformFeeBps *big.Int
}

// Fee mirrors the fee tuple.
type Fee struct {
	Amount     *big.Int
	SwapRate   *big.Int
	IsOutToken bool
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// FromOrder converts a domain order into its tuple form.
func FromOrder(o domain.Order) ExecOrder {
	return ExecOrder{
		User:              o.Owner,
		InToken:           o.InToken,
		OutToken:          o.OutToken,
		AmountPerTrade:    copyInt(o.AmountPerTrade),
		NTradesLeft:       u256(o.TradesLeft),
		MinSlippage:       u256(o.MinSlippage),
		MaxSlippage:       u256(o.MaxSlippage),
		Delay:             u256(o.Delay),
		LastExecutionTime: u256(o.LastExecutionTime),
		PlatformWallet:    o.PlatformWallet,
		PlatformFeeBps:    u256(o.PlatformFeeBps),
	}
}

// ToOrder converts the tuple back. uint256 fields that do not fit uint64 are rejected.
func (e ExecOrder) ToOrder() (domain.Order, error) {
	fields := []struct {
		name string
		v    *big.Int
	}{
		{"nTradesLeft", e.NTradesLeft},
		{"minSlippage", e.MinSlippage},
		{"maxSlippage", e.MaxSlippage},
		{"delay", e.Delay},
		{"lastExecutionTime", e.LastExecutionTime},
		{"platformFeeBps", e.PlatformFeeBps},
	}
	for _, f := range fields {
		if f.v == nil || !f.v.IsUint64() {
			return domain.Order{}, errors.Errorf("order field %s out of range: %v", f.name, f.v)
		}
	}

	return domain.Order{
		Owner:             e.User,
		InToken:           e.InToken,
		OutToken:          e.OutToken,
		AmountPerTrade:    copyInt(e.AmountPerTrade),
		TradesLeft:        e.NTradesLeft.Uint64(),
		MinSlippage:       e.MinSlippage.Uint64(),
		MaxSlippage:       e.MaxSlippage.Uint64(),
		Delay:             e.Delay.Uint64(),
		LastExecutionTime: e.LastExecutionTime.Uint64(),
		PlatformWallet:    e.PlatformWallet,
		PlatformFeeBps:    e.PlatformFeeBps.Uint64(),
	}, nil
}

// FromSubmitOrder converts a submission into its tuple form.
func FromSubmitOrder(s domain.SubmitOrder) SubmitOrder {
	return SubmitOrder{
		InToken:        s.InToken,
		OutToken:       s.OutToken,
		AmountPerTrade: copyInt(s.AmountPerTrade),
		NumTrades:      u256(s.NumTrades),
		MinSlippage:    u256(s.MinSlippage),
		MaxSlippage:    u256(s.MaxSlippage),
		Delay:          u256(s.Delay),
		PlatformWallet: s.PlatformWallet,
		PlatformFeeBps: u256(s.PlatformFeeBps),
	}
}

// FromFee converts a domain fee into its tuple form.
func FromFee(f domain.Fee) Fee {
	return Fee{Amount: copyInt(f.Amount), SwapRate: copyInt(f.SwapRate), IsOutToken: f.IsOutToken}
}

// ToFee converts the tuple back.
func (f Fee) ToFee() domain.Fee {
	return domain.Fee{Amount: copyInt(f.Amount), SwapRate: copyInt(f.SwapRate), IsOutToken: f.IsOutToken}
}

// TaskHash is the storage key the cycle store keeps for a live task: keccak256(abi.encode(order, id)).
func TaskHash(o domain.Order, id domain.TaskID) (common.Hash, error) {
	args := abi.Arguments{
		DCA.Methods["isTaskSubmitted"].Inputs[0],
		DCA.Methods["isTaskSubmitted"].Inputs[1],
	}
	encoded, err := args.Pack(FromOrder(o), id.BigInt())
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}
