package route

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
	"go.uber.org/zap"
)

var (
	dai     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	uni     = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	sushi   = common.HexToAddress("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")
	routers = []Router{{Venue: domain.VenueRouterA, Address: uni}, {Venue: domain.VenueRouterB, Address: sushi}}
)

func testOrder() domain.Order {
	return domain.Order{InToken: dai, OutToken: usdc, AmountPerTrade: big.NewInt(1000), PlatformFeeBps: 50}
}

func direct() []common.Address { return domain.DirectPath(dai, usdc) }

func setup(t *testing.T, agg, a, b *big.Int) *chainMock.Quoter {
	q := chainMock.NewQuoter(t)
	q.On("AggregatorReturn", mock.Anything, dai, usdc, big.NewInt(1000), uint64(50), []byte{}).Return(agg, nil)
	q.On("RouterReturn", mock.Anything, uni, big.NewInt(1000), direct(), uint64(50)).Return(a, nil)
	q.On("RouterReturn", mock.Anything, sushi, big.NewInt(1000), direct(), uint64(50)).Return(b, nil)
	return q
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		agg, a, b int64
		venue     domain.Venue
		amount    int64
	}{
		{name: "aggregator strictly greater wins", agg: 101, a: 100, b: 99, venue: domain.VenueAggregator, amount: 101},
		{name: "tie with aggregator favors router", agg: 100, a: 100, b: 99, venue: domain.VenueRouterA, amount: 100},
		{name: "router tie keeps first seen", agg: 10, a: 100, b: 100, venue: domain.VenueRouterA, amount: 100},
		{name: "second router strictly greater", agg: 10, a: 100, b: 101, venue: domain.VenueRouterB, amount: 101},
		{name: "aggregator ties second router", agg: 101, a: 100, b: 101, venue: domain.VenueRouterB, amount: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := setup(t, big.NewInt(tt.agg), big.NewInt(tt.a), big.NewInt(tt.b))

			quote, err := NewSelector(zap.NewNop(), q, routers, nil).Select(context.Background(), testOrder())
			require.NoError(t, err)
			require.Equal(t, tt.venue, quote.Venue)
			require.Equal(t, tt.amount, quote.Amount.Int64())
			if tt.venue == domain.VenueAggregator {
				require.Empty(t, quote.Path)
			} else {
				require.Equal(t, direct(), quote.Path)
			}
		})
	}
}

func TestSelect_RevertingRouterIsSkipped(t *testing.T) {
	q := chainMock.NewQuoter(t)
	q.On("AggregatorReturn", mock.Anything, dai, usdc, big.NewInt(1000), uint64(50), []byte{}).Return(big.NewInt(50), nil)
	q.On("RouterReturn", mock.Anything, uni, big.NewInt(1000), direct(), uint64(50)).Return(nil, domain.NewRevert("UniswapV2Library: INSUFFICIENT_LIQUIDITY"))
	q.On("RouterReturn", mock.Anything, sushi, big.NewInt(1000), direct(), uint64(50)).Return(big.NewInt(60), nil)

	quote, err := NewSelector(zap.NewNop(), q, routers, nil).Select(context.Background(), testOrder())
	require.NoError(t, err)
	require.Equal(t, domain.VenueRouterB, quote.Venue)
}

func TestSelect_TransportErrorFails(t *testing.T) {
	q := chainMock.NewQuoter(t)
	q.On("AggregatorReturn", mock.Anything, dai, usdc, big.NewInt(1000), uint64(50), []byte{}).Return(nil, errors.New("503 service unavailable"))

	_, err := NewSelector(zap.NewNop(), q, routers, nil).Select(context.Background(), testOrder())
	require.Error(t, err)
}

func TestSelect_MultiHop(t *testing.T) {
	hop := []common.Address{dai, weth, usdc}
	q := setup(t, big.NewInt(10), big.NewInt(100), big.NewInt(90))
	q.On("RouterReturn", mock.Anything, uni, big.NewInt(1000), hop, uint64(50)).Return(big.NewInt(100), nil)
	q.On("RouterReturn", mock.Anything, sushi, big.NewInt(1000), hop, uint64(50)).Return(big.NewInt(105), nil)

	quote, err := NewSelector(zap.NewNop(), q, routers, ViaPaths(weth, dai)).Select(context.Background(), testOrder())
	require.NoError(t, err)
	require.Equal(t, domain.VenueRouterB, quote.Venue)
	require.Equal(t, hop, quote.Path)
}
