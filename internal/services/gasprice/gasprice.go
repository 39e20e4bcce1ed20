// Package gasprice provides the gas price used to value executor work.
package gasprice

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

// Kind names a gas price source in config.
type Kind string

const (
	KindOracle Kind = "oracle"
	KindNode   Kind = "node"
	KindAPI    Kind = "api"
	KindStatic Kind = "static"
)

// ErrAboveCeiling is returned by Ceiling.Check when gas is too expensive to execute.
var ErrAboveCeiling = errors.New("gas price above ceiling")

type oracleReader interface {
	OracleGasPrice(ctx context.Context) (*big.Int, error)
}

type nodeReader interface {
	NodeGasPrice(ctx context.Context) (*big.Int, error)
}

// Oracle reads the on-chain gas price feed.
type Oracle struct {
	reader oracleReader
}

// NewOracle creates an Oracle source.
func NewOracle(r oracleReader) *Oracle {
	return &Oracle{reader: r}
}

// GasPrice implements chain.GasPricer.
func (o *Oracle) GasPrice(ctx context.Context) (*big.Int, error) {
	return o.reader.OracleGasPrice(ctx)
}

// Node uses the node's suggested price.
type Node struct {
	reader nodeReader
}

// NewNode creates a Node source.
func NewNode(r nodeReader) *Node {
	return &Node{reader: r}
}

// GasPrice implements chain.GasPricer.
func (n *Node) GasPrice(ctx context.Context) (*big.Int, error) {
	return n.reader.NodeGasPrice(ctx)
}

// Static always returns the configured price.
type Static struct {
	wei *big.Int
}

// NewStatic creates a Static source from a gwei amount.
func NewStatic(gwei decimal.Decimal) (*Static, error) {
	if !gwei.IsPositive() {
		return nil, fmt.Errorf("static gas price must be positive, got %s gwei", gwei)
	}
	return &Static{wei: domain.GweiToWei(gwei)}, nil
}

// GasPrice implements chain.GasPricer.
func (s *Static) GasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.wei), nil
}

// APIConfig describes a gas tracker endpoint that answers in gwei.
type APIConfig struct {
	URL     string
	Field   string
	Timeout time.Duration
}

// API polls an etherscan style gas tracker:
// {"status":"1","result":{"SafeGasPrice":"20","ProposeGasPrice":"22","FastGasPrice":"25.5"}}.
type API struct {
	client *resty.Client
	field  string
}

type trackerResponse struct {
	Status string            `json:"status"`
	Result map[string]string `json:"result"`
}

// NewAPI creates an API source.
func NewAPI(cfg APIConfig) *API {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Field == "" {
		cfg.Field = "ProposeGasPrice"
	}
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &API{client: client, field: cfg.Field}
}

// GasPrice implements chain.GasPricer.
func (a *API) GasPrice(ctx context.Context) (*big.Int, error) {
	var body trackerResponse
	resp, err := a.client.R().SetContext(ctx).SetResult(&body).Get("")
	if err != nil {
		return nil, errors.Wrap(err, "gas api request")
	}
	if resp.IsError() {
		return nil, errors.Errorf("gas api answered %s", resp.Status())
	}

	raw, ok := body.Result[a.field]
	if !ok {
		return nil, errors.Errorf("gas api response has no %q field", a.field)
	}
	gwei, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse gas api field %q", a.field)
	}
	if !gwei.IsPositive() {
		return nil, errors.Errorf("gas api answered %s gwei", gwei)
	}
	return domain.GweiToWei(gwei), nil
}

// Ceiling rejects execution when gas is above a configured maximum.
// A zero ceiling allows any price.
type Ceiling struct {
	l   *zap.Logger
	max *big.Int
}

// NewCeiling creates a Ceiling from a gwei amount.
func NewCeiling(l *zap.Logger, maxGwei decimal.Decimal) *Ceiling {
	c := &Ceiling{l: l}
	if maxGwei.IsPositive() {
		c.max = domain.GweiToWei(maxGwei)
	}
	return c
}

// Check returns ErrAboveCeiling when price exceeds the maximum.
func (c *Ceiling) Check(price *big.Int) error {
	if c == nil || c.max == nil || price.Cmp(c.max) <= 0 {
		return nil
	}
	c.l.Warn("gas price above ceiling",
		zap.String("price_gwei", domain.FormatUnits(price, 9)),
		zap.String("max_gwei", domain.FormatUnits(c.max, 9)))
	return errors.Wrapf(ErrAboveCeiling, "%s > %s wei", price, c.max)
}
