package config

import (
	"flag"
	"time"
)

type cliFlags struct {
	platform     *string
	rpcURL       *string
	cycleStore   *string
	automation   *string
	executor     *string
	feeMode      *string
	gasSource    *string
	maxGas       *string
	pollInterval *time.Duration
	autoExec     *bool
	walDir       *string
	webAddr      *string
	logFile      *string
	logLevel     *string
	orders       *int
}

func registerCLIFlags() *cliFlags {
	return &cliFlags{
		platform:     flag.String("platform", PlatformSimulate, "chain backend: evm or simulate"),
		rpcURL:       flag.String("rpc", "", "JSON-RPC endpoint, required for evm"),
		cycleStore:   flag.String("cyclestore", "", "cycle store contract address"),
		automation:   flag.String("automation", "", "automation contract address"),
		executor:     flag.String("executor", "", "executor address"),
		feeMode:      flag.String("feemode", "oracle", "fee mode: oracle or debit"),
		gasSource:    flag.String("gassource", "", "gas price source: oracle, node, api or static"),
		maxGas:       flag.String("maxgasgwei", "", "skip execution above this gas price in gwei"),
		pollInterval: flag.Duration("pollinterval", defaultPollInterval, "task poll interval"),
		autoExec:     flag.Bool("autoexec", false, "send executable payloads"),
		walDir:       flag.String("waldir", defaultWALDir, "directory for WAL journals"),
		webAddr:      flag.String("web", "", "dashboard listen address, e.g. :8080"),
		logFile:      flag.String("logfile", "", "rotating log file"),
		logLevel:     flag.String("loglevel", "info", "log level"),
		orders:       flag.Int("simorders", 1, "orders seeded into the simulated chain"),
	}
}

func (f *cliFlags) build() (Config, error) {
	tmp := ConfigTmp{
		Name:            "cli",
		Platform:        *f.platform,
		RPCURL:          *f.rpcURL,
		CycleStore:      *f.cycleStore,
		Automation:      *f.automation,
		Executor:        *f.executor,
		FeeMode:         *f.feeMode,
		GasSource:       *f.gasSource,
		MaxGasPriceGwei: *f.maxGas,
		PollInterval:    *f.pollInterval,
		AutoExec:        *f.autoExec,
		WALDir:          *f.walDir,
		WebAddr:         *f.webAddr,
		SimulateOrders:  *f.orders,
	}
	return tmp.toConfig()
}

func (f *cliFlags) log() LogConfig {
	return LogConfig{Level: *f.logLevel, File: *f.logFile, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
}
