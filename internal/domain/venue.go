package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Venue is the swap protocol code understood by exec.
type Venue uint8

const (
	// VenueAggregator sources liquidity internally and takes no path.
	VenueAggregator Venue = iota
	// VenueRouterA is the first AMM router (Uniswap style).
	VenueRouterA
	// VenueRouterB is the second AMM router (Sushiswap style).
	VenueRouterB
)

func (v Venue) String() string {
	switch v {
	case VenueAggregator:
		return "aggregator"
	case VenueRouterA:
		return "router_a"
	case VenueRouterB:
		return "router_b"
	default:
		return fmt.Sprintf("venue_%d", uint8(v))
	}
}

// Code is the uint8 protocol argument of exec.
func (v Venue) Code() uint8 {
	return uint8(v)
}

// IsRouter reports whether the venue needs an explicit trade path.
func (v Venue) IsRouter() bool {
	return v != VenueAggregator
}

// EncodePath returns the path argument for this venue. The aggregator always gets an empty path.
func (v Venue) EncodePath(path []common.Address) []common.Address {
	if !v.IsRouter() {
		return []common.Address{}
	}
	out := make([]common.Address, len(path))
	copy(out, path)
	return out
}

// ParseVenue maps a protocol code back to a Venue.
func ParseVenue(code uint8) (Venue, error) {
	v := Venue(code)
	if v > VenueRouterB {
		return 0, fmt.Errorf("unknown venue code %d", code)
	}
	return v, nil
}

// Quote is an expected output for one venue and path.
type Quote struct {
	Venue  Venue            `json:"venue"`
	Amount *big.Int         `json:"amount"`
	Path   []common.Address `json:"path"`
}

// Route is the part of a quote that goes into the payload.
func (q Quote) Route() Route {
	return Route{Venue: q.Venue, Path: q.Venue.EncodePath(q.Path)}
}

// Route is a venue together with its encoded path.
type Route struct {
	Venue Venue
	Path  []common.Address
}

// DirectPath is the single hop path from in to out.
func DirectPath(in, out common.Address) []common.Address {
	return []common.Address{in, out}
}
