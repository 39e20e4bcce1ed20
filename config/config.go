package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcakeeper/internal/services/fee"
	"github.com/vadiminshakov/dcakeeper/internal/services/gasprice"
	"gopkg.in/yaml.v3"
)

const (
	PlatformEVM      = "evm"
	PlatformSimulate = "simulate"

	defaultPollInterval = 30 * time.Second
	defaultCallTimeout  = 10 * time.Second
	defaultConcurrency  = 4
	defaultWALDir       = "./wal"
)

// Config is one keeper instance.
type Config struct {
	Name     string
	Platform string
	RPCURL   string

	CycleStore     common.Address
	Automation     common.Address
	Oracle         common.Address
	GasPriceOracle common.Address
	RouterA        common.Address
	RouterB        common.Address
	Connectors     []common.Address
	Executor       common.Address

	FeeMode    fee.Mode
	IsOutToken bool

	GasSource       gasprice.Kind
	GasAPIURL       string
	GasAPIField     string
	StaticGasGwei   decimal.Decimal
	MaxGasPriceGwei decimal.Decimal

	PollInterval  time.Duration
	CallTimeout   time.Duration
	Concurrency   int
	AutoExec      bool
	StartBlock    uint64
	MaxBlockRange uint64

	WALDir     string
	StatsdAddr string
	WebAddr    string
	WebDomain  string

	Simulate SimulateConfig
}

// SimulateConfig seeds the in-memory chain.
type SimulateConfig struct {
	Orders    int
	ClockStep time.Duration
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Settings is everything loaded at startup.
type Settings struct {
	Log     LogConfig
	Keepers []Config
	Setup   bool
}

// ConfigTmp is the yaml shape of a keeper instance.
type ConfigTmp struct {
	Name            string        `yaml:"name,omitempty"`
	Platform        string        `yaml:"platform"`
	RPCURL          string        `yaml:"rpc_url,omitempty"`
	CycleStore      string        `yaml:"cycle_store,omitempty"`
	Automation      string        `yaml:"automation,omitempty"`
	Oracle          string        `yaml:"oracle,omitempty"`
	GasPriceOracle  string        `yaml:"gas_price_oracle,omitempty"`
	RouterA         string        `yaml:"router_a,omitempty"`
	RouterB         string        `yaml:"router_b,omitempty"`
	Connectors      []string      `yaml:"connectors,omitempty"`
	Executor        string        `yaml:"executor,omitempty"`
	FeeMode         string        `yaml:"fee_mode,omitempty"`
	IsOutToken      bool          `yaml:"is_out_token,omitempty"`
	GasSource       string        `yaml:"gas_source,omitempty"`
	GasAPIURL       string        `yaml:"gas_api_url,omitempty"`
	GasAPIField     string        `yaml:"gas_api_field,omitempty"`
	StaticGasGwei   string        `yaml:"static_gas_gwei,omitempty"`
	MaxGasPriceGwei string        `yaml:"max_gas_price_gwei,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	CallTimeout     time.Duration `yaml:"call_timeout,omitempty"`
	Concurrency     int           `yaml:"concurrency,omitempty"`
	AutoExec        bool          `yaml:"auto_exec,omitempty"`
	StartBlock      uint64        `yaml:"start_block,omitempty"`
	MaxBlockRange   uint64        `yaml:"max_block_range,omitempty"`
	WALDir          string        `yaml:"wal_dir,omitempty"`
	StatsdAddr      string        `yaml:"statsd_addr,omitempty"`
	WebAddr         string        `yaml:"web_addr,omitempty"`
	WebDomain       string        `yaml:"web_domain,omitempty"`
	SimulateOrders  int           `yaml:"simulate_orders,omitempty"`
	SimulateStep    time.Duration `yaml:"simulate_clock_step,omitempty"`
}

// FileTmp is the yaml document. A bare list of keepers is accepted as well.
type FileTmp struct {
	Log     LogConfig   `yaml:"log,omitempty"`
	Keepers []ConfigTmp `yaml:"keepers"`
}

// Get parses flags and loads the yaml config, falling back to a single
// keeper described by flags when -config is not given.
func Get() (Settings, error) {
	configPath := flag.String("config", "", "path to yaml config")
	setup := flag.Bool("setup", false, "run the interactive config wizard")
	cli := registerCLIFlags()
	flag.Parse()

	if *setup {
		return Settings{Setup: true}, nil
	}
	if *configPath != "" {
		return Load(*configPath)
	}

	c, err := cli.build()
	if err != nil {
		return Settings{}, err
	}
	return Settings{Log: cli.log(), Keepers: []Config{c}}, nil
}

// Load reads and validates a yaml config file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// Parse validates a yaml config document.
func Parse(data []byte) (Settings, error) {
	var file FileTmp
	if err := yaml.Unmarshal(data, &file); err != nil {
		var list []ConfigTmp
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return Settings{}, fmt.Errorf("invalid yaml config: %w", err)
		}
		file = FileTmp{Keepers: list}
	}
	if len(file.Keepers) == 0 {
		return Settings{}, fmt.Errorf("config has no keepers")
	}

	settings := Settings{Log: file.Log}
	for i, c := range file.Keepers {
		conf, err := c.toConfig()
		if err != nil {
			return Settings{}, fmt.Errorf("keeper %d: %w", i, err)
		}
		if conf.Name == "" {
			conf.Name = fmt.Sprintf("keeper-%d", i)
		}
		settings.Keepers = append(settings.Keepers, conf)
	}
	return settings, nil
}

func (c ConfigTmp) toConfig() (Config, error) {
	conf := Config{
		Name:          c.Name,
		Platform:      c.Platform,
		RPCURL:        c.RPCURL,
		IsOutToken:    c.IsOutToken,
		GasAPIURL:     c.GasAPIURL,
		GasAPIField:   c.GasAPIField,
		PollInterval:  c.PollInterval,
		CallTimeout:   c.CallTimeout,
		Concurrency:   c.Concurrency,
		AutoExec:      c.AutoExec,
		StartBlock:    c.StartBlock,
		MaxBlockRange: c.MaxBlockRange,
		WALDir:        c.WALDir,
		StatsdAddr:    c.StatsdAddr,
		WebAddr:       c.WebAddr,
		WebDomain:     c.WebDomain,
		Simulate:      SimulateConfig{Orders: c.SimulateOrders, ClockStep: c.SimulateStep},
	}

	switch conf.Platform {
	case PlatformEVM:
		if conf.RPCURL == "" {
			return Config{}, fmt.Errorf("'rpc_url' is required for platform %s", PlatformEVM)
		}
	case PlatformSimulate:
	default:
		return Config{}, fmt.Errorf("unsupported platform: %q", conf.Platform)
	}

	var err error
	required := conf.Platform == PlatformEVM
	addrs := []struct {
		name     string
		raw      string
		dst      *common.Address
		required bool
	}{
		{"cycle_store", c.CycleStore, &conf.CycleStore, required},
		{"automation", c.Automation, &conf.Automation, required},
		{"executor", c.Executor, &conf.Executor, required},
		{"oracle", c.Oracle, &conf.Oracle, false},
		{"gas_price_oracle", c.GasPriceOracle, &conf.GasPriceOracle, false},
		{"router_a", c.RouterA, &conf.RouterA, false},
		{"router_b", c.RouterB, &conf.RouterB, false},
	}
	for _, a := range addrs {
		if *a.dst, err = parseAddress(a.name, a.raw, a.required); err != nil {
			return Config{}, err
		}
	}
	for _, raw := range c.Connectors {
		addr, err := parseAddress("connectors", raw, true)
		if err != nil {
			return Config{}, err
		}
		conf.Connectors = append(conf.Connectors, addr)
	}

	switch mode := fee.Mode(c.FeeMode); mode {
	case "":
		conf.FeeMode = fee.ModeOracle
	case fee.ModeOracle, fee.ModeDebit:
		conf.FeeMode = mode
	default:
		return Config{}, fmt.Errorf("incorrect 'fee_mode' param in yaml config: %q (oracle or debit)", c.FeeMode)
	}

	switch kind := gasprice.Kind(c.GasSource); kind {
	case "":
		conf.GasSource = gasprice.KindNode
		if conf.Platform == PlatformSimulate {
			conf.GasSource = gasprice.KindStatic
		}
	case gasprice.KindOracle:
		if conf.GasPriceOracle == (common.Address{}) && conf.Platform == PlatformEVM {
			return Config{}, fmt.Errorf("'gas_price_oracle' is required for gas_source %s", kind)
		}
		conf.GasSource = kind
	case gasprice.KindAPI:
		if conf.GasAPIURL == "" {
			return Config{}, fmt.Errorf("'gas_api_url' is required for gas_source %s", kind)
		}
		conf.GasSource = kind
	case gasprice.KindNode, gasprice.KindStatic:
		conf.GasSource = kind
	default:
		return Config{}, fmt.Errorf("incorrect 'gas_source' param in yaml config: %q", c.GasSource)
	}

	if conf.StaticGasGwei, err = parseGwei("static_gas_gwei", c.StaticGasGwei, decimal.NewFromInt(30)); err != nil {
		return Config{}, err
	}
	if conf.MaxGasPriceGwei, err = parseGwei("max_gas_price_gwei", c.MaxGasPriceGwei, decimal.Zero); err != nil {
		return Config{}, err
	}

	if conf.PollInterval <= 0 {
		conf.PollInterval = defaultPollInterval
	}
	if conf.CallTimeout <= 0 {
		conf.CallTimeout = defaultCallTimeout
	}
	if conf.Concurrency <= 0 {
		conf.Concurrency = defaultConcurrency
	}
	if conf.WALDir == "" {
		conf.WALDir = defaultWALDir
	}
	if conf.Platform == PlatformSimulate {
		if conf.Simulate.Orders <= 0 {
			conf.Simulate.Orders = 1
		}
		if conf.Simulate.ClockStep <= 0 {
			conf.Simulate.ClockStep = time.Minute
		}
	}

	return conf, nil
}

// Tmp converts a config back to its yaml shape.
func (c Config) Tmp() ConfigTmp {
	hex := func(a common.Address) string {
		if a == (common.Address{}) {
			return ""
		}
		return a.Hex()
	}
	tmp := ConfigTmp{
		Name:           c.Name,
		Platform:       c.Platform,
		RPCURL:         c.RPCURL,
		CycleStore:     hex(c.CycleStore),
		Automation:     hex(c.Automation),
		Oracle:         hex(c.Oracle),
		GasPriceOracle: hex(c.GasPriceOracle),
		RouterA:        hex(c.RouterA),
		RouterB:        hex(c.RouterB),
		Executor:       hex(c.Executor),
		FeeMode:        string(c.FeeMode),
		IsOutToken:     c.IsOutToken,
		GasSource:      string(c.GasSource),
		GasAPIURL:      c.GasAPIURL,
		GasAPIField:    c.GasAPIField,
		PollInterval:   c.PollInterval,
		CallTimeout:    c.CallTimeout,
		Concurrency:    c.Concurrency,
		AutoExec:       c.AutoExec,
		StartBlock:     c.StartBlock,
		MaxBlockRange:  c.MaxBlockRange,
		WALDir:         c.WALDir,
		StatsdAddr:     c.StatsdAddr,
		WebAddr:        c.WebAddr,
		WebDomain:      c.WebDomain,
		SimulateOrders: c.Simulate.Orders,
		SimulateStep:   c.Simulate.ClockStep,
	}
	for _, a := range c.Connectors {
		tmp.Connectors = append(tmp.Connectors, a.Hex())
	}
	if !c.StaticGasGwei.IsZero() {
		tmp.StaticGasGwei = c.StaticGasGwei.String()
	}
	if !c.MaxGasPriceGwei.IsZero() {
		tmp.MaxGasPriceGwei = c.MaxGasPriceGwei.String()
	}
	return tmp
}

func parseAddress(name, raw string, required bool) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return common.Address{}, fmt.Errorf("'%s' is required", name)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("incorrect '%s' param in yaml config: %q is not an address", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseGwei(name, raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal), error: %w", name, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("incorrect '%s' param in yaml config: must not be negative", name)
	}
	return d, nil
}
