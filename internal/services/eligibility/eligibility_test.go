package eligibility

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	chainMock "github.com/vadiminshakov/dcakeeper/mocks/chain"
)

var (
	holder = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	dai    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func tokenOrder() domain.Order {
	return domain.Order{
		Owner:          owner,
		InToken:        dai,
		OutToken:       usdc,
		AmountPerTrade: big.NewInt(1000),
		TradesLeft:     3,
		Delay:          120,
	}
}

func TestChecker_TaskNotFound(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(false, nil)

	res, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonTaskNotFound, res.Reason)
}

func TestChecker_TimeGateBeforeFunds(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, o).Return(nil, domain.NewRevert("not due"))

	// no token expectations: balance must not be read before the time gate opens
	res, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonTimeNotPassed, res.Reason)
	tokens.AssertNotCalled(t, "BalanceOf", mock.Anything, mock.Anything, mock.Anything)
}

func TestChecker_BalanceBeforeApproval(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, o).Return(big.NewInt(500), nil)
	store.On("Address").Return(holder)
	tokens.On("BalanceOf", mock.Anything, dai, owner).Return(big.NewInt(999), nil)
	tokens.On("Allowance", mock.Anything, dai, owner, holder).Return(big.NewInt(0), nil).Maybe()

	res, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonInsufficientBalance, res.Reason)
}

func TestChecker_InsufficientApproval(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, o).Return(big.NewInt(500), nil)
	store.On("Address").Return(holder)
	tokens.On("BalanceOf", mock.Anything, dai, owner).Return(big.NewInt(1000), nil)
	tokens.On("Allowance", mock.Anything, dai, owner, holder).Return(big.NewInt(999), nil)

	res, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonInsufficientApproval, res.Reason)
}

func TestChecker_Eligible(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, o).Return(big.NewInt(500), nil)
	store.On("Address").Return(holder)
	tokens.On("BalanceOf", mock.Anything, dai, owner).Return(big.NewInt(1000), nil)
	tokens.On("Allowance", mock.Anything, dai, owner, holder).Return(big.NewInt(1000), nil)

	res, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.NoError(t, err)
	require.True(t, res.Eligible())
	require.Equal(t, int64(500), res.MinReturn.Int64())
}

func TestChecker_NativeInputUsesHolderBalance(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()
	o.InToken = domain.NativeAsset

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(2)).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, o).Return(big.NewInt(1), nil)
	store.On("Address").Return(holder)
	tokens.On("NativeBalance", mock.Anything, holder).Return(big.NewInt(10), nil)

	res, err := NewChecker(store, tokens).Check(context.Background(), o, 2)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonInsufficientBalance, res.Reason)
}

func TestChecker_InfraErrorsPropagate(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	o := tokenOrder()

	store.On("IsTaskSubmitted", mock.Anything, o, domain.TaskID(1)).Return(false, errors.New("dial tcp: i/o timeout"))

	_, err := NewChecker(store, tokens).Check(context.Background(), o, 1)
	require.Error(t, err)
}
