package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	testDAI   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	testUSDC  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testOwner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func validSubmit() SubmitOrder {
	return SubmitOrder{
		InToken:        testDAI,
		OutToken:       testUSDC,
		AmountPerTrade: big.NewInt(1000),
		NumTrades:      3,
		MinSlippage:    5000,
		MaxSlippage:    5500,
		Delay:          120,
		PlatformFeeBps: 50,
	}
}

func TestSubmitOrder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *SubmitOrder)
		wantErr error
	}{
		{name: "valid", mutate: func(o *SubmitOrder) {}},
		{name: "same asset", mutate: func(o *SubmitOrder) { o.OutToken = o.InToken }, wantErr: ErrSameAsset},
		{name: "zero amount", mutate: func(o *SubmitOrder) { o.AmountPerTrade = big.NewInt(0) }, wantErr: ErrInvalidAmount},
		{name: "nil amount", mutate: func(o *SubmitOrder) { o.AmountPerTrade = nil }, wantErr: ErrInvalidAmount},
		{name: "no trades", mutate: func(o *SubmitOrder) { o.NumTrades = 0 }, wantErr: ErrInvalidNumTrades},
		{name: "fee above denominator", mutate: func(o *SubmitOrder) { o.PlatformFeeBps = 10_001 }, wantErr: ErrInvalidFeeBps},
		{name: "fee at denominator", mutate: func(o *SubmitOrder) { o.PlatformFeeBps = 10_000 }},
		{name: "min above max", mutate: func(o *SubmitOrder) { o.MinSlippage = 6000 }, wantErr: ErrInvalidSlippage},
		{name: "max above denominator", mutate: func(o *SubmitOrder) { o.MaxSlippage = 10_001 }, wantErr: ErrInvalidSlippage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validSubmit()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewOrder(t *testing.T) {
	s := validSubmit()
	o, err := NewOrder(testOwner, s)
	require.NoError(t, err)
	require.Equal(t, uint64(3), o.TradesLeft)
	require.Equal(t, uint64(0), o.LastExecutionTime)
	require.Equal(t, testOwner, o.Owner)

	// the order must not alias the submission amount
	s.AmountPerTrade.SetInt64(1)
	require.Equal(t, int64(1000), o.AmountPerTrade.Int64())

	s.OutToken = s.InToken
	_, err = NewOrder(testOwner, s)
	require.ErrorIs(t, err, ErrSameAsset)
}

func TestOrder_Advance(t *testing.T) {
	o, err := NewOrder(testOwner, validSubmit())
	require.NoError(t, err)

	next, err := o.Advance(1_000)
	require.NoError(t, err)
	require.Equal(t, uint64(2), next.TradesLeft)
	require.Equal(t, uint64(1_000), next.LastExecutionTime)
	require.Equal(t, uint64(3), o.TradesLeft, "advance must not mutate the receiver")
	require.Equal(t, int64(1_120), next.NextDue().Unix())

	o.TradesLeft = 0
	_, err = o.Advance(1_000)
	require.Error(t, err)
}

func TestOrder_Equal(t *testing.T) {
	o, err := NewOrder(testOwner, validSubmit())
	require.NoError(t, err)

	c := o.Clone()
	require.True(t, o.Equal(c))

	c.AmountPerTrade.SetInt64(999)
	require.False(t, o.Equal(c))

	c = o.Clone()
	c.LastExecutionTime = 7
	require.False(t, o.Equal(c))
}

func TestPendingApproval(t *testing.T) {
	o, err := NewOrder(testOwner, validSubmit())
	require.NoError(t, err)
	other := o.Clone()
	other.Owner = common.HexToAddress("0x00000000000000000000000000000000000000b2")

	tasks := []SubmittedTask{
		{ID: 1, Order: o, Kind: TaskEventSubmitted},
		{ID: 2, Order: other, Kind: TaskEventSubmitted},
		{ID: 3, Order: o, Kind: TaskEventCancelled},
	}

	require.Equal(t, int64(3000), PendingApproval(tasks, testOwner, testDAI).Int64())
	require.Equal(t, int64(0), PendingApproval(tasks, testOwner, testUSDC).Int64())
}

func TestUnits(t *testing.T) {
	amount, err := ParseUnits("1000", 18)
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("1000000000000000000000", 10)
	require.Equal(t, 0, expected.Cmp(amount))
	require.Equal(t, "1000", FormatUnits(amount, 18))
	require.Equal(t, "0.5", FormatUnits(big.NewInt(500_000), 6))

	_, err = ParseUnits("abc", 6)
	require.Error(t, err)
}

func TestTaskIDFromBig(t *testing.T) {
	id, err := TaskIDFromBig(big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, TaskID(42), id)

	_, err = TaskIDFromBig(new(big.Int).Lsh(big.NewInt(1), 64))
	require.Error(t, err)
	_, err = TaskIDFromBig(big.NewInt(-1))
	require.Error(t, err)
	_, err = TaskIDFromBig(nil)
	require.Error(t, err)
}
