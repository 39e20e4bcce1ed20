// Package simchain is an in-memory stand-in for the cycle store, venues,
// oracle and automation contracts. Every mutating call is atomic under one
// lock, which gives executions the same compare-and-advance semantics as the
// real contract.
package simchain

import (
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/slippage"
	"go.uber.org/zap"
)

const (
	baseExecGas = 180_000
	hopExecGas  = 60_000
)

var (
	DefaultAddress           = common.HexToAddress("0x00000000000000000000000000000000000dca01")
	DefaultAutomationAddress = common.HexToAddress("0x00000000000000000000000000000000000a0701")
)

type pairKey struct {
	in, out common.Address
}

type rate struct {
	num, den *big.Int
}

func (r rate) apply(amount *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, r.num)
	return out.Div(out, r.den)
}

type allowanceKey struct {
	owner, spender common.Address
}

// Chain holds all simulated contract state.
type Chain struct {
	mu sync.Mutex
	l  *zap.Logger

	address    common.Address
	automation common.Address
	sender     common.Address
	policy     slippage.Policy

	now    uint64
	block  uint64
	nextID uint64

	tasks  map[domain.TaskID]common.Hash
	orders map[domain.TaskID]domain.Order
	events []domain.SubmittedTask

	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[allowanceKey]*big.Int

	aggRates    map[pairKey]rate
	routerRates map[common.Address]map[pairKey]rate
	oracleRates map[common.Address]rate

	executors map[common.Address]bool
	gasPrice  *big.Int
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) { c.l = l }
}

// WithPolicy sets the min return curve.
func WithPolicy(p slippage.Policy) Option {
	return func(c *Chain) { c.policy = p }
}

// WithTime sets the initial chain time.
func WithTime(ts time.Time) Option {
	return func(c *Chain) { c.now = uint64(ts.Unix()) }
}

// WithExecutor whitelists the executor and makes it the sender of Exec.
func WithExecutor(executor common.Address) Option {
	return func(c *Chain) {
		c.executors[executor] = true
		c.sender = executor
	}
}

// WithGasPrice sets the gas price in wei.
func WithGasPrice(wei *big.Int) Option {
	return func(c *Chain) { c.gasPrice = new(big.Int).Set(wei) }
}

// New creates an empty chain.
func New(opts ...Option) *Chain {
	c := &Chain{
		l:           zap.NewNop(),
		address:     DefaultAddress,
		automation:  DefaultAutomationAddress,
		policy:      slippage.LinearPolicy{},
		now:         uint64(time.Now().Unix()),
		block:       1,
		tasks:       make(map[domain.TaskID]common.Hash),
		orders:      make(map[domain.TaskID]domain.Order),
		balances:    make(map[common.Address]map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[allowanceKey]*big.Int),
		aggRates:    make(map[pairKey]rate),
		routerRates: make(map[common.Address]map[pairKey]rate),
		oracleRates: make(map[common.Address]rate),
		executors:   make(map[common.Address]bool),
		gasPrice:    big.NewInt(50_000_000_000),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address is the cycle store contract, which also holds native deposits.
func (c *Chain) Address() common.Address { return c.address }

// AutomationAddress is the automation entry point.
func (c *Chain) AutomationAddress() common.Address { return c.automation }

// Now returns the chain time.
func (c *Chain) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(int64(c.now), 0)
}

// SetTime moves the chain clock.
func (c *Chain) SetTime(ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = uint64(ts.Unix())
	c.block++
}

// Advance moves the chain clock forward.
func (c *Chain) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += uint64(d / time.Second)
	c.block++
}

// CurrentTaskID is the last issued task id.
func (c *Chain) CurrentTaskID() domain.TaskID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.TaskID(c.nextID)
}

// Mint credits token to owner. Use domain.NativeAsset for the native coin.
func (c *Chain) Mint(token, owner common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(token, owner, amount)
}

// Approve sets an allowance.
func (c *Chain) Approve(token, owner, spender common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowances[token] == nil {
		c.allowances[token] = make(map[allowanceKey]*big.Int)
	}
	c.allowances[token][allowanceKey{owner, spender}] = new(big.Int).Set(amount)
}

// SetAggregatorRate prices in→out on the aggregator as num/den out units per in unit.
func (c *Chain) SetAggregatorRate(in, out common.Address, num, den *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aggRates[pairKey{in, out}] = rate{num: num, den: den}
}

// SetRouterRate prices one hop on a router.
func (c *Chain) SetRouterRate(router, in, out common.Address, num, den *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.routerRates[router] == nil {
		c.routerRates[router] = make(map[pairKey]rate)
	}
	c.routerRates[router][pairKey{in, out}] = rate{num: num, den: den}
}

// SetOracleRate prices token units per native unit.
func (c *Chain) SetOracleRate(token common.Address, num, den *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oracleRates[token] = rate{num: num, den: den}
}

// AddExecutor whitelists an executor.
func (c *Chain) AddExecutor(executor common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executors[executor] = true
	if c.sender == (common.Address{}) {
		c.sender = executor
	}
}

// RemoveExecutor revokes an executor.
func (c *Chain) RemoveExecutor(executor common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.executors, executor)
}

// Order returns the stored order of a live task.
func (c *Chain) Order(id domain.TaskID) (domain.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	return o.Clone(), ok
}

func (c *Chain) balance(token, owner common.Address) *big.Int {
	if b, ok := c.balances[token][owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (c *Chain) credit(token, owner common.Address, amount *big.Int) {
	if c.balances[token] == nil {
		c.balances[token] = make(map[common.Address]*big.Int)
	}
	c.balances[token][owner] = new(big.Int).Add(c.balance(token, owner), amount)
}

func (c *Chain) debit(token, owner common.Address, amount *big.Int) bool {
	bal := c.balance(token, owner)
	if bal.Cmp(amount) < 0 {
		return false
	}
	if c.balances[token] == nil {
		c.balances[token] = make(map[common.Address]*big.Int)
	}
	c.balances[token][owner] = bal.Sub(bal, amount)
	return true
}

func (c *Chain) allowance(token, owner, spender common.Address) *big.Int {
	if a, ok := c.allowances[token][allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (c *Chain) spendAllowance(token, owner, spender common.Address, amount *big.Int) bool {
	a := c.allowance(token, owner, spender)
	if a.Cmp(amount) < 0 {
		return false
	}
	if c.allowances[token] == nil {
		c.allowances[token] = make(map[allowanceKey]*big.Int)
	}
	c.allowances[token][allowanceKey{owner, spender}] = a.Sub(a, amount)
	return true
}

func (c *Chain) txHash(data []byte) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], c.block)
	return crypto.Keccak256Hash(buf[:], data)
}

// Burn removes token from owner. It reports false when the balance is too low.
func (c *Chain) Burn(token, owner common.Address, amount *big.Int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debit(token, owner, amount)
}
