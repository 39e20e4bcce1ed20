package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// BpsDenominator is the basis point denominator used for fees and slippage.
const BpsDenominator = 10_000

// NativeAsset is the sentinel address used by the contracts for the chain's native coin.
var NativeAsset = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

var (
	ErrSameAsset        = errors.New("input and output assets must differ")
	ErrInvalidFeeBps    = errors.New("platform fee bps must be within [0, 10000]")
	ErrInvalidSlippage  = errors.New("slippage bounds must satisfy min <= max <= 10000")
	ErrInvalidAmount    = errors.New("amount per trade must be positive")
	ErrInvalidNumTrades = errors.New("number of trades must be positive")
	ErrTradesExceeded   = errors.New("trades remaining exceed total trades")
)

// SubmitOrder is the form a user signs to start a recurring cycle.
type SubmitOrder struct {
	InToken        common.Address `json:"in_token"`
	OutToken       common.Address `json:"out_token"`
	AmountPerTrade *big.Int       `json:"amount_per_trade"`
	NumTrades      uint64         `json:"num_trades"`
	MinSlippage    uint64         `json:"min_slippage"`
	MaxSlippage    uint64         `json:"max_slippage"`
	Delay          uint64         `json:"delay"`
	PlatformWallet common.Address `json:"platform_wallet"`
	PlatformFeeBps uint64         `json:"platform_fee_bps"`
}

// NewSubmitOrder creates a validated SubmitOrder.
func NewSubmitOrder(in, out common.Address, amountPerTrade *big.Int, numTrades, minSlippage, maxSlippage,
	delay uint64, platformWallet common.Address, platformFeeBps uint64) (SubmitOrder, error) {
	o := SubmitOrder{
		InToken:        in,
		OutToken:       out,
		AmountPerTrade: amountPerTrade,
		NumTrades:      numTrades,
		MinSlippage:    minSlippage,
		MaxSlippage:    maxSlippage,
		Delay:          delay,
		PlatformWallet: platformWallet,
		PlatformFeeBps: platformFeeBps,
	}
	if err := o.Validate(); err != nil {
		return SubmitOrder{}, err
	}
	return o, nil
}

// Validate checks submission invariants.
func (o SubmitOrder) Validate() error {
	if o.InToken == o.OutToken {
		return ErrSameAsset
	}
	if o.AmountPerTrade == nil || o.AmountPerTrade.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if o.NumTrades == 0 {
		return ErrInvalidNumTrades
	}
	if o.PlatformFeeBps > BpsDenominator {
		return errors.Wrapf(ErrInvalidFeeBps, "got %d", o.PlatformFeeBps)
	}
	if o.MinSlippage > o.MaxSlippage || o.MaxSlippage > BpsDenominator {
		return errors.Wrapf(ErrInvalidSlippage, "got min %d max %d", o.MinSlippage, o.MaxSlippage)
	}
	return nil
}

// TotalDeposit is the amount needed to fund every trade of the cycle.
func (o SubmitOrder) TotalDeposit() *big.Int {
	return new(big.Int).Mul(o.AmountPerTrade, new(big.Int).SetUint64(o.NumTrades))
}

// Order is the stored state of one recurring cycle instance.
type Order struct {
	Owner             common.Address `json:"owner"`
	InToken           common.Address `json:"in_token"`
	OutToken          common.Address `json:"out_token"`
	AmountPerTrade    *big.Int       `json:"amount_per_trade"`
	TradesLeft        uint64         `json:"trades_left"`
	MinSlippage       uint64         `json:"min_slippage"`
	MaxSlippage       uint64         `json:"max_slippage"`
	Delay             uint64         `json:"delay"`
	LastExecutionTime uint64         `json:"last_execution_time"`
	PlatformWallet    common.Address `json:"platform_wallet"`
	PlatformFeeBps    uint64         `json:"platform_fee_bps"`
}

// NewOrder turns a submission into the first stored instance of the cycle.
func NewOrder(owner common.Address, s SubmitOrder) (Order, error) {
	if err := s.Validate(); err != nil {
		return Order{}, err
	}
	return Order{
		Owner:          owner,
		InToken:        s.InToken,
		OutToken:       s.OutToken,
		AmountPerTrade: new(big.Int).Set(s.AmountPerTrade),
		TradesLeft:     s.NumTrades,
		MinSlippage:    s.MinSlippage,
		MaxSlippage:    s.MaxSlippage,
		Delay:          s.Delay,
		PlatformWallet: s.PlatformWallet,
		PlatformFeeBps: s.PlatformFeeBps,
	}, nil
}

// IsNativeIn reports whether the order sells the chain's native coin.
func (o Order) IsNativeIn() bool {
	return o.InToken == NativeAsset
}

// NextDue is the earliest time the next trade may execute.
func (o Order) NextDue() time.Time {
	return time.Unix(int64(o.LastExecutionTime+o.Delay), 0)
}

// Advance returns the order after one trade executed at ts.
func (o Order) Advance(ts uint64) (Order, error) {
	if o.TradesLeft == 0 {
		return Order{}, fmt.Errorf("order has no trades left")
	}
	next := o.Clone()
	next.TradesLeft--
	next.LastExecutionTime = ts
	return next, nil
}

// Remaining is the input amount still locked for pending trades.
func (o Order) Remaining() *big.Int {
	return new(big.Int).Mul(o.AmountPerTrade, new(big.Int).SetUint64(o.TradesLeft))
}

// Clone deep copies the order.
func (o Order) Clone() Order {
	c := o
	if o.AmountPerTrade != nil {
		c.AmountPerTrade = new(big.Int).Set(o.AmountPerTrade)
	}
	return c
}

// Equal compares all stored fields.
func (o Order) Equal(other Order) bool {
	if (o.AmountPerTrade == nil) != (other.AmountPerTrade == nil) {
		return false
	}
	if o.AmountPerTrade != nil && o.AmountPerTrade.Cmp(other.AmountPerTrade) != 0 {
		return false
	}
	a, b := o, other
	a.AmountPerTrade, b.AmountPerTrade = nil, nil
	return a == b
}
