package fee

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
	executor = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	target   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	dai      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	draft    = domain.DraftPayload{0x01, 0x02}
)

func testOrder() domain.Order {
	return domain.Order{InToken: dai, OutToken: usdc, AmountPerTrade: big.NewInt(1000)}
}

func TestBufferedGas(t *testing.T) {
	require.Equal(t, int64(102_000), BufferedGas(100_000, false).Int64())
	require.Equal(t, int64(100_000), BufferedGas(100_000, true).Int64())
	// integer division floors the buffer: 49*2/100 == 0, 150*2/100 == 3
	require.Equal(t, int64(49), BufferedGas(49, false).Int64())
	require.Equal(t, int64(153), BufferedGas(150, false).Int64())
}

func TestEstimate_OracleMode(t *testing.T) {
	tests := []struct {
		name       string
		isOutToken bool
		feeToken   common.Address
		weiAmount  int64
	}{
		{name: "input asset fee is buffered", isOutToken: false, feeToken: dai, weiAmount: 102_000 * 30},
		{name: "output asset fee is raw", isOutToken: true, feeToken: usdc, weiAmount: 100_000 * 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := chainMock.NewAutomation(t)
			o := chainMock.NewPriceOracle(t)
			g := chainMock.NewGasPricer(t)

			a.On("EstimateExecGas", mock.Anything, executor, target, draft, tt.feeToken).Return(uint64(100_000), nil)
			g.On("GasPrice", mock.Anything).Return(big.NewInt(30), nil)
			o.On("ExpectedReturnAmount", mock.Anything, big.NewInt(tt.weiAmount), domain.NativeAsset, tt.feeToken).Return(big.NewInt(777), nil)

			e, err := NewEstimator(Config{Executor: executor, Target: target, IsOutToken: tt.isOutToken}, a, o, g)
			require.NoError(t, err)

			fee, err := e.Estimate(context.Background(), testOrder(), draft)
			require.NoError(t, err)
			require.Equal(t, int64(777), fee.Amount.Int64())
			require.Equal(t, int64(0), fee.SwapRate.Int64())
			require.Equal(t, tt.isOutToken, fee.IsOutToken)
		})
	}
}

func TestEstimate_NativeFeeSkipsOracle(t *testing.T) {
	a := chainMock.NewAutomation(t)
	o := chainMock.NewPriceOracle(t)
	g := chainMock.NewGasPricer(t)
	order := testOrder()
	order.InToken = domain.NativeAsset

	a.On("EstimateExecGas", mock.Anything, executor, target, draft, domain.NativeAsset).Return(uint64(100), nil)
	g.On("GasPrice", mock.Anything).Return(big.NewInt(2), nil)

	e, err := NewEstimator(Config{Executor: executor, Target: target}, a, o, g)
	require.NoError(t, err)

	fee, err := e.Estimate(context.Background(), order, draft)
	require.NoError(t, err)
	require.Equal(t, int64(204), fee.Amount.Int64())
}

func TestEstimate_DebitMode(t *testing.T) {
	a := chainMock.NewAutomation(t)
	a.On("EstimateExecGasDebit", mock.Anything, executor, target, draft, dai).Return(big.NewInt(4242), nil)

	e, err := NewEstimator(Config{Mode: ModeDebit, Executor: executor, Target: target}, a, nil, nil)
	require.NoError(t, err)

	fee, err := e.Estimate(context.Background(), testOrder(), draft)
	require.NoError(t, err)
	require.Equal(t, int64(4242), fee.Amount.Int64())
}

func TestEstimate_RevertSkipsSecondPass(t *testing.T) {
	a := chainMock.NewAutomation(t)
	o := chainMock.NewPriceOracle(t)
	g := chainMock.NewGasPricer(t)
	a.On("EstimateExecGas", mock.Anything, executor, target, draft, dai).Return(uint64(0), domain.NewRevert("GelatoDCA: Insufficient output"))

	e, err := NewEstimator(Config{Executor: executor, Target: target}, a, o, g)
	require.NoError(t, err)

	_, err = e.Estimate(context.Background(), testOrder(), draft)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, domain.Reason("GelatoDCA: Insufficient output"), rej.Reason)
	g.AssertNotCalled(t, "GasPrice", mock.Anything)
}

func TestEstimate_EmptyRevertMeansExecutorCannotExec(t *testing.T) {
	a := chainMock.NewAutomation(t)
	a.On("EstimateExecGasDebit", mock.Anything, executor, target, draft, dai).Return(nil, domain.NewRevert(""))

	e, err := NewEstimator(Config{Mode: ModeDebit, Executor: executor, Target: target}, a, nil, nil)
	require.NoError(t, err)

	_, err = e.Estimate(context.Background(), testOrder(), draft)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, domain.ReasonExecutorCannotExec, rej.Reason)
}

func TestEstimate_TransportError(t *testing.T) {
	a := chainMock.NewAutomation(t)
	a.On("EstimateExecGasDebit", mock.Anything, executor, target, draft, dai).Return(nil, errors.New("EOF"))

	e, err := NewEstimator(Config{Mode: ModeDebit, Executor: executor, Target: target}, a, nil, nil)
	require.NoError(t, err)

	_, err = e.Estimate(context.Background(), testOrder(), draft)
	require.Error(t, err)
	var rej *Rejection
	require.False(t, errors.As(err, &rej))
}

func TestNewEstimator_UnknownMode(t *testing.T) {
	_, err := NewEstimator(Config{Mode: "magic"}, nil, nil, nil)
	require.Error(t, err)
}
