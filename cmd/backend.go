package main

import (
	"context"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/config"
	"github.com/vadiminshakov/dcakeeper/internal/chain"
	"github.com/vadiminshakov/dcakeeper/internal/chain/evm"
	"github.com/vadiminshakov/dcakeeper/internal/chain/simchain"
	"github.com/vadiminshakov/dcakeeper/internal/clients"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/services/gasprice"
	"github.com/vadiminshakov/dcakeeper/internal/services/route"
	"go.uber.org/zap"
)

const privateKeyEnv = "EXECUTOR_PRIVATE_KEY"

var (
	simExecutor = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	simWallet   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	simDAI      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	simUSDC     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

type chainBackend interface {
	chain.CycleStore
	chain.CycleWriter
	chain.Quoter
	chain.Automation
	chain.PriceOracle
	chain.TokenReader
	chain.TaskFeed
}

// backend bundles the collaborators one keeper instance needs.
type backend struct {
	chain    chainBackend
	gas      chain.GasPricer
	routers  []route.Router
	executor common.Address
	canSend  bool
	// tick runs once per poll; the simulation uses it to move its clock.
	tick  func()
	close func()
}

func newBackend(ctx context.Context, l *zap.Logger, conf config.Config) (*backend, error) {
	switch conf.Platform {
	case config.PlatformEVM:
		return newEVMBackend(ctx, l, conf)
	case config.PlatformSimulate:
		return newSimBackend(ctx, l, conf)
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}

func newEVMBackend(ctx context.Context, l *zap.Logger, conf config.Config) (*backend, error) {
	eth, err := clients.NewEthClient(ctx, conf.RPCURL)
	if err != nil {
		return nil, err
	}

	var signer *evm.Signer
	if key := os.Getenv(privateKeyEnv); key != "" {
		if signer, err = evm.NewSigner(key); err != nil {
			eth.Close()
			return nil, errors.Wrap(err, privateKeyEnv)
		}
		if signer.Address() != conf.Executor {
			eth.Close()
			return nil, errors.Errorf("%s belongs to %s, not executor %s", privateKeyEnv, signer.Address().Hex(), conf.Executor.Hex())
		}
	}

	client := evm.NewClient(l, eth, evm.Config{
		CycleStore:     conf.CycleStore,
		Automation:     conf.Automation,
		Oracle:         conf.Oracle,
		GasPriceOracle: conf.GasPriceOracle,
		RouterA:        conf.RouterA,
		RouterB:        conf.RouterB,
		MaxBlockRange:  conf.MaxBlockRange,
	}, signer)

	gas, err := gasSource(conf, client, client)
	if err != nil {
		eth.Close()
		return nil, err
	}

	var routers []route.Router
	if conf.RouterA != (common.Address{}) {
		routers = append(routers, route.Router{Venue: domain.VenueRouterA, Address: conf.RouterA})
	}
	if conf.RouterB != (common.Address{}) {
		routers = append(routers, route.Router{Venue: domain.VenueRouterB, Address: conf.RouterB})
	}

	return &backend{
		chain:    client,
		gas:      gas,
		routers:  routers,
		executor: conf.Executor,
		canSend:  signer != nil,
		tick:     func() {},
		close:    eth.Close,
	}, nil
}

// simGas adapts the simulated chain's own gas price to both reader roles.
type simGas struct{ c *simchain.Chain }

func (g simGas) OracleGasPrice(ctx context.Context) (*big.Int, error) { return g.c.GasPrice(ctx) }
func (g simGas) NodeGasPrice(ctx context.Context) (*big.Int, error)   { return g.c.GasPrice(ctx) }

func newSimBackend(ctx context.Context, l *zap.Logger, conf config.Config) (*backend, error) {
	executor := conf.Executor
	if executor == (common.Address{}) {
		executor = simExecutor
	}
	c := simchain.New(
		simchain.WithLogger(l.Named("simchain")),
		simchain.WithExecutor(executor),
		simchain.WithGasPrice(big.NewInt(30_000_000_000)),
	)
	if err := seedSimulation(ctx, c, conf.Simulate.Orders); err != nil {
		return nil, err
	}

	gas, err := gasSource(conf, simGas{c}, simGas{c})
	if err != nil {
		return nil, err
	}

	return &backend{
		chain: c,
		gas:   gas,
		routers: []route.Router{
			{Venue: domain.VenueRouterA, Address: simchain.DefaultRouterA},
			{Venue: domain.VenueRouterB, Address: simchain.DefaultRouterB},
		},
		executor: executor,
		canSend:  true,
		tick:     func() { c.Advance(conf.Simulate.ClockStep) },
		close:    func() {},
	}, nil
}

func gasSource(conf config.Config, oracle interface {
	OracleGasPrice(ctx context.Context) (*big.Int, error)
}, node interface {
	NodeGasPrice(ctx context.Context) (*big.Int, error)
}) (chain.GasPricer, error) {
	switch conf.GasSource {
	case gasprice.KindOracle:
		return gasprice.NewOracle(oracle), nil
	case gasprice.KindNode:
		return gasprice.NewNode(node), nil
	case gasprice.KindAPI:
		return gasprice.NewAPI(gasprice.APIConfig{URL: conf.GasAPIURL, Field: conf.GasAPIField}), nil
	case gasprice.KindStatic:
		return gasprice.NewStatic(conf.StaticGasGwei)
	default:
		return nil, errors.Errorf("unknown gas source %q", conf.GasSource)
	}
}

// seedSimulation prices a DAI/USDC/native market and opens n cycles that
// alternate between token and native input.
func seedSimulation(ctx context.Context, c *simchain.Chain, n int) error {

	oneE12 := big.NewInt(1_000_000_000_000)
	oneE18 := new(big.Int).Mul(oneE12, big.NewInt(1_000_000))

	c.SetAggregatorRate(simDAI, simUSDC, big.NewInt(1), oneE12)
	c.SetRouterRate(simchain.DefaultRouterA, simDAI, simUSDC, big.NewInt(1), oneE12)
	c.SetRouterRate(simchain.DefaultRouterB, simDAI, simUSDC, big.NewInt(999), new(big.Int).Mul(oneE12, big.NewInt(1000)))
	c.SetAggregatorRate(domain.NativeAsset, simUSDC, big.NewInt(2000), oneE12)
	c.SetRouterRate(simchain.DefaultRouterA, domain.NativeAsset, simUSDC, big.NewInt(1990), oneE12)
	c.SetOracleRate(simDAI, big.NewInt(2000), big.NewInt(1))
	c.SetOracleRate(simUSDC, big.NewInt(2000), oneE12)

	for i := 0; i < n; i++ {
		owner := common.BigToAddress(big.NewInt(int64(0xa000 + i)))
		in, perTrade := simDAI, new(big.Int).Mul(big.NewInt(100), oneE18)
		if i%2 == 1 {
			in, perTrade = domain.NativeAsset, new(big.Int).Div(oneE18, big.NewInt(20))
		}

		s, err := domain.NewSubmitOrder(in, simUSDC, perTrade, 5, 100, 300, uint64((2 * time.Minute).Seconds()), simWallet, 30)
		if err != nil {
			return err
		}
		c.Mint(in, owner, s.TotalDeposit())
		if in != domain.NativeAsset {
			c.Approve(in, owner, c.Address(), s.TotalDeposit())
		}
		if _, err := c.Submit(ctx, owner, s); err != nil {
			return errors.Wrapf(err, "seed order %d", i)
		}
	}
	return nil
}
