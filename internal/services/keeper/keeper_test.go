package keeper

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcakeeper/internal/chain/simchain"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/eligibility"
	"github.com/vadiminshakov/dcakeeper/internal/services/fee"
	"github.com/vadiminshakov/dcakeeper/internal/services/payload"
	"github.com/vadiminshakov/dcakeeper/internal/services/route"
	chainMock "github.com/vadiminshakov/dcakeeper/mocks/chain"
	"go.uber.org/zap"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	executor = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	wallet   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	holder   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	dai      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	t0       = time.Unix(1_700_000_000, 0)
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

var routers = []route.Router{
	{Venue: domain.VenueRouterA, Address: simchain.DefaultRouterA},
	{Venue: domain.VenueRouterB, Address: simchain.DefaultRouterB},
}

type strictPolicy struct{}

// MinReturn demands more than the ideal quote so nothing is ever enough.
func (strictPolicy) MinReturn(_ domain.Order, _ uint64, ideal *big.Int) (*big.Int, error) {
	return new(big.Int).Add(ideal, big.NewInt(1)), nil
}

func newChain(opts ...simchain.Option) *simchain.Chain {
	opts = append([]simchain.Option{simchain.WithTime(t0), simchain.WithExecutor(executor), simchain.WithGasPrice(big.NewInt(10))}, opts...)
	c := simchain.New(opts...)
	c.SetAggregatorRate(dai, usdc, big.NewInt(1), big.NewInt(1_000_000_000_000))
	c.SetRouterRate(simchain.DefaultRouterA, dai, usdc, big.NewInt(1), big.NewInt(1_000_000_000_000))
	c.SetOracleRate(dai, big.NewInt(2000), big.NewInt(1))
	c.SetOracleRate(usdc, big.NewInt(2000), big.NewInt(1_000_000_000_000))
	return c
}

func newKeeper(t *testing.T, c *simchain.Chain, mode fee.Mode) *Keeper {
	est, err := fee.NewEstimator(fee.Config{Mode: mode, Executor: executor, Target: c.Address()}, c, c, c)
	require.NoError(t, err)
	return New(zap.NewNop(), Config{Executor: executor, CallTimeout: time.Second},
		eligibility.NewChecker(c, c),
		route.NewSelector(zap.NewNop(), c, routers, route.DirectPaths),
		c, est)
}

func submitDAI(t *testing.T, c *simchain.Chain) domain.SubmittedTask {
	c.Mint(dai, owner, e18(3000))
	c.Approve(dai, owner, c.Address(), e18(3000))
	s, err := domain.NewSubmitOrder(dai, usdc, e18(1000), 3, 5000, 5500, 120, wallet, 50)
	require.NoError(t, err)
	task, err := c.Submit(context.Background(), owner, s)
	require.NoError(t, err)
	return task
}

func liveTask(t *testing.T, c *simchain.Chain) (domain.Order, domain.TaskID) {
	id := c.CurrentTaskID()
	order, ok := c.Order(id)
	require.True(t, ok)
	return order, id
}

func TestCanExec_FullCycle(t *testing.T) {
	ctx := context.Background()
	c := newChain()
	k := newKeeper(t, c, fee.ModeOracle)
	task := submitDAI(t, c)

	d, err := k.CanExec(ctx, task.Order, task.ID)
	require.NoError(t, err)
	require.Equal(t, "NotOk: Time not passed", d.Status())

	order, id := task.Order, task.ID
	for trade := 1; trade <= 3; trade++ {
		c.Advance(120 * time.Second)

		d, err = k.CanExec(ctx, order, id)
		require.NoError(t, err)
		require.True(t, d.OK(), "trade %d: %s", trade, d.Status())
		require.Equal(t, domain.StatusOK, d.Result().OK)
		require.NotEmpty(t, d.Result().Payload)

		call, err := payload.Decode(d.Payload)
		require.NoError(t, err)
		// router ties with the aggregator so the router keeps the win
		require.Equal(t, domain.VenueRouterA, call.Venue)
		require.Equal(t, []common.Address{dai, usdc}, call.Path)
		// 240k gas buffered by 2%, 10 wei each, 2000 DAI per native unit
		require.Equal(t, int64(244_800*10*2000), call.Fee.Amount.Int64())
		require.False(t, call.Fee.IsOutToken)

		_, err = c.Exec(ctx, c.Address(), d.Payload, dai)
		require.NoError(t, err)

		d, err = k.CanExec(ctx, order, id)
		require.NoError(t, err)
		require.Equal(t, domain.ReasonTaskNotFound, d.Reason)

		if trade < 3 {
			order, id = liveTask(t, c)
			require.Equal(t, uint64(3-trade), order.TradesLeft)

			d, err = k.CanExec(ctx, order, id)
			require.NoError(t, err)
			require.Equal(t, domain.ReasonTimeNotPassed, d.Reason)
		}
	}

	left, _ := c.BalanceOf(ctx, dai, owner)
	require.Equal(t, 0, left.Sign())
}

func TestCanExec_StaysDueAfterDelay(t *testing.T) {
	ctx := context.Background()
	c := newChain()
	k := newKeeper(t, c, fee.ModeOracle)
	task := submitDAI(t, c)

	c.Advance(119 * time.Second)
	d, err := k.CanExec(ctx, task.Order, task.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonTimeNotPassed, d.Reason)

	for _, step := range []time.Duration{time.Second, time.Minute, time.Hour, 24 * time.Hour} {
		c.Advance(step)
		d, err = k.CanExec(ctx, task.Order, task.ID)
		require.NoError(t, err)
		require.True(t, d.OK(), d.Status())
	}
}

func TestCanExec_CancelIsFinal(t *testing.T) {
	ctx := context.Background()
	c := newChain()
	k := newKeeper(t, c, fee.ModeOracle)
	task := submitDAI(t, c)

	c.Advance(120 * time.Second)
	d, err := k.CanExec(ctx, task.Order, task.ID)
	require.NoError(t, err)
	require.True(t, d.OK())
	_, err = c.Exec(ctx, c.Address(), d.Payload, dai)
	require.NoError(t, err)

	order, id := liveTask(t, c)
	require.NoError(t, c.Cancel(ctx, order, id))

	for i := 0; i < 3; i++ {
		d, err = k.CanExec(ctx, order, id)
		require.NoError(t, err)
		require.Equal(t, domain.ReasonTaskNotFound, d.Reason)
		c.Advance(time.Hour)
	}
}

func TestCanExec_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		opts  []simchain.Option
		setup func(c *simchain.Chain)
		want  domain.Reason
	}{
		{
			name:  "balance spent elsewhere",
			setup: func(c *simchain.Chain) { c.Burn(dai, owner, e18(2500)) },
			want:  domain.ReasonInsufficientBalance,
		},
		{
			name:  "approval revoked",
			setup: func(c *simchain.Chain) { c.Approve(dai, owner, c.Address(), e18(10)) },
			want:  domain.ReasonInsufficientApproval,
		},
		{
			name: "min return above every quote",
			opts: []simchain.Option{simchain.WithPolicy(strictPolicy{})},
			want: domain.ReasonInsufficientReturn,
		},
		{
			name:  "executor removed",
			setup: func(c *simchain.Chain) { c.RemoveExecutor(executor) },
			want:  domain.ReasonExecutorCannotExec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChain(tt.opts...)
			k := newKeeper(t, c, fee.ModeOracle)
			task := submitDAI(t, c)
			c.Advance(120 * time.Second)
			if tt.setup != nil {
				tt.setup(c)
			}

			d, err := k.CanExec(context.Background(), task.Order, task.ID)
			require.NoError(t, err)
			require.Equal(t, tt.want, d.Reason)
			require.Empty(t, d.Payload)
			require.Empty(t, d.Result().Payload)
		})
	}
}

func TestCanExec_DebitMode(t *testing.T) {
	ctx := context.Background()
	c := newChain()
	k := newKeeper(t, c, fee.ModeDebit)
	task := submitDAI(t, c)
	c.Advance(120 * time.Second)

	d, err := k.CanExec(ctx, task.Order, task.ID)
	require.NoError(t, err)
	require.True(t, d.OK(), d.Status())

	call, err := payload.Decode(d.Payload)
	require.NoError(t, err)
	require.Equal(t, int64(240_000*10*2000), call.Fee.Amount.Int64())
}

func TestCanExec_TwoPassFee(t *testing.T) {
	ctx := context.Background()
	store := chainMock.NewCycleStore(t)
	tokens := chainMock.NewTokenReader(t)
	quoter := chainMock.NewQuoter(t)
	automation := chainMock.NewAutomation(t)
	oracle := chainMock.NewPriceOracle(t)
	gas := chainMock.NewGasPricer(t)

	order := domain.Order{
		Owner: owner, InToken: dai, OutToken: usdc, AmountPerTrade: big.NewInt(1000),
		TradesLeft: 2, Delay: 60, LastExecutionTime: 1, PlatformWallet: wallet,
	}
	id := domain.TaskID(7)

	store.On("IsTaskSubmitted", mock.Anything, mock.Anything, id).Return(true, nil)
	store.On("GetMinReturn", mock.Anything, mock.Anything).Return(big.NewInt(900), nil)
	store.On("Address").Return(holder)
	tokens.On("BalanceOf", mock.Anything, dai, owner).Return(big.NewInt(5000), nil)
	tokens.On("Allowance", mock.Anything, dai, owner, holder).Return(big.NewInt(5000), nil)
	quoter.On("AggregatorReturn", mock.Anything, dai, usdc, mock.Anything, uint64(0), []byte{}).Return(big.NewInt(1000), nil)
	quoter.On("RouterReturn", mock.Anything, simchain.DefaultRouterA, mock.Anything, mock.Anything, uint64(0)).Return(big.NewInt(1100), nil)
	quoter.On("RouterReturn", mock.Anything, simchain.DefaultRouterB, mock.Anything, mock.Anything, uint64(0)).Return(big.NewInt(1050), nil)
	automation.On("CanExec", mock.Anything, executor).Return(true, nil)

	var draftFee int64
	automation.On("EstimateExecGas", mock.Anything, executor, holder, mock.Anything, dai).
		Run(func(args mock.Arguments) {
			call, err := payload.Decode(args.Get(3).(domain.DraftPayload))
			require.NoError(t, err)
			draftFee = call.Fee.Amount.Int64()
		}).
		Return(uint64(100_000), nil)
	gas.On("GasPrice", mock.Anything).Return(big.NewInt(30), nil)
	oracle.On("ExpectedReturnAmount", mock.Anything, big.NewInt(102_000*30), domain.NativeAsset, dai).Return(big.NewInt(42), nil)

	est, err := fee.NewEstimator(fee.Config{Executor: executor, Target: holder}, automation, oracle, gas)
	require.NoError(t, err)
	k := New(zap.NewNop(), Config{Executor: executor},
		eligibility.NewChecker(store, tokens),
		route.NewSelector(zap.NewNop(), quoter, routers, route.DirectPaths),
		automation, est)

	d, err := k.CanExec(ctx, order, id)
	require.NoError(t, err)
	require.True(t, d.OK(), d.Status())
	require.Equal(t, int64(1), draftFee)

	call, err := payload.Decode(d.Payload)
	require.NoError(t, err)
	require.Equal(t, int64(42), call.Fee.Amount.Int64())
	require.Equal(t, domain.VenueRouterA, call.Venue)
	require.Equal(t, id, call.TaskID)
	require.True(t, call.Order.Equal(order))
}

type idealPolicy struct{}

func (idealPolicy) MinReturn(_ domain.Order, _ uint64, ideal *big.Int) (*big.Int, error) {
	return new(big.Int).Set(ideal), nil
}

func TestCanExec_FeeEstimateRevertReason(t *testing.T) {
	ctx := context.Background()
	c := newChain(simchain.WithPolicy(idealPolicy{}))
	c.SetAggregatorRate(dai, usdc, big.NewInt(1), big.NewInt(1))
	c.SetRouterRate(simchain.DefaultRouterA, dai, usdc, big.NewInt(1), big.NewInt(1))
	k := newKeeper(t, c, fee.ModeOracle)

	c.Mint(dai, owner, e18(1000))
	c.Approve(dai, owner, c.Address(), e18(1000))
	s, err := domain.NewSubmitOrder(dai, usdc, e18(1000), 1, 0, 0, 60, wallet, 0)
	require.NoError(t, err)
	task, err := c.Submit(ctx, owner, s)
	require.NoError(t, err)
	c.Advance(time.Minute)

	// the quote meets min return exactly, the draft fee pushes the dry run below it
	d, err := k.CanExec(ctx, task.Order, task.ID)
	require.NoError(t, err)
	require.Equal(t, "NotOk: DCA: insufficient output", d.Status())
	require.Empty(t, d.Payload)
}

func TestCanExec_InfraError(t *testing.T) {
	store := chainMock.NewCycleStore(t)
	store.On("IsTaskSubmitted", mock.Anything, mock.Anything, mock.Anything).Return(false, context.DeadlineExceeded)

	k := New(zap.NewNop(), Config{Executor: executor}, eligibility.NewChecker(store, nil), nil, nil, nil)
	_, err := k.CanExec(context.Background(), domain.Order{AmountPerTrade: big.NewInt(1)}, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
