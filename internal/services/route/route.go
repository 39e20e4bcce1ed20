// Package route picks the venue and path with the best expected output.
package route

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

type quoter interface {
	AggregatorReturn(ctx context.Context, in, out common.Address, amount *big.Int, feeBps uint64, hint []byte) (*big.Int, error)
	RouterReturn(ctx context.Context, router common.Address, amount *big.Int, path []common.Address, feeBps uint64) (*big.Int, error)
}

// Router is a router style venue and the contract address it quotes through.
type Router struct {
	Venue   domain.Venue
	Address common.Address
}

// PathSource lists the candidate paths to try for an order.
type PathSource func(order domain.Order) [][]common.Address

// DirectPaths only tries the single hop path.
func DirectPaths(order domain.Order) [][]common.Address {
	return [][]common.Address{domain.DirectPath(order.InToken, order.OutToken)}
}

// ViaPaths tries the direct path and then one hop through each connector.
func ViaPaths(connectors ...common.Address) PathSource {
	return func(order domain.Order) [][]common.Address {
		paths := DirectPaths(order)
		for _, c := range connectors {
			if c == order.InToken || c == order.OutToken {
				continue
			}
			paths = append(paths, []common.Address{order.InToken, c, order.OutToken})
		}
		return paths
	}
}

// Selector compares the aggregator against every router and path.
type Selector struct {
	l       *zap.Logger
	quoter  quoter
	routers []Router
	paths   PathSource
}

// NewSelector creates a Selector. Routers are tried in the given order.
func NewSelector(l *zap.Logger, q quoter, routers []Router, paths PathSource) *Selector {
	if paths == nil {
		paths = DirectPaths
	}
	return &Selector{l: l, quoter: q, routers: routers, paths: paths}
}

// Select returns the best quote. Router candidates only replace the running
// best when strictly greater, and the aggregator only wins when strictly
// greater than the best router. A reverting quote counts as no liquidity.
func (s *Selector) Select(ctx context.Context, order domain.Order) (domain.Quote, error) {
	aggOut, err := s.quoter.AggregatorReturn(ctx, order.InToken, order.OutToken, order.AmountPerTrade, order.PlatformFeeBps, []byte{})
	if err != nil {
		if _, ok := domain.AsRevert(err); !ok {
			return domain.Quote{}, errors.Wrap(err, "aggregator quote")
		}
		s.l.Debug("aggregator quote reverted", zap.Error(err))
		aggOut = new(big.Int)
	}

	var best *domain.Quote
	bestOut := new(big.Int)
	for _, path := range s.paths(order) {
		for _, r := range s.routers {
			out, err := s.quoter.RouterReturn(ctx, r.Address, order.AmountPerTrade, path, order.PlatformFeeBps)
			if err != nil {
				if _, ok := domain.AsRevert(err); !ok {
					return domain.Quote{}, errors.Wrapf(err, "%s quote", r.Venue)
				}
				s.l.Debug("router quote reverted", zap.String("venue", r.Venue.String()), zap.Error(err))
				continue
			}
			if out.Cmp(bestOut) > 0 {
				bestOut = out
				best = &domain.Quote{Venue: r.Venue, Amount: out, Path: path}
			}
		}
	}

	if best == nil || aggOut.Cmp(bestOut) > 0 {
		return domain.Quote{Venue: domain.VenueAggregator, Amount: aggOut, Path: []common.Address{}}, nil
	}
	return *best, nil
}
