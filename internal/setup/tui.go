// Package setup runs the interactive wizard that writes a keeper config file.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcakeeper/config"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers collects wizard input before it is turned into a config document.
type answers struct {
	platform     string
	rpcURL       string
	cycleStore   string
	automation   string
	executor     string
	routerA      string
	routerB      string
	feeMode      string
	isOutToken   bool
	gasSource    string
	gasAPIURL    string
	maxGasGwei   string
	pollInterval string
	autoExec     bool
	webAddr      string
}

func defaults() answers {
	return answers{
		platform:     config.PlatformSimulate,
		feeMode:      "oracle",
		gasSource:    "node",
		pollInterval: "30s",
		webAddr:      ":8080",
	}
}

func header(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("DCA KEEPER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal wizard and returns the written config path.
func RunTUI() (string, error) {
	a := defaults()
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("DCA KEEPER CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the keeper at a cycle store and let it run.\n"))

	fmt.Println(stepStyle.Render("STEP 1: CHAIN"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where do the cycles live?").
				Options(
					huh.NewOption("EVM chain over JSON-RPC", config.PlatformEVM),
					huh.NewOption("Simulation", config.PlatformSimulate),
				).
				Value(&a.platform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if a.platform == config.PlatformEVM {
		header("STEP 2: CONTRACTS")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("RPC URL").Value(&a.rpcURL).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("rpc url cannot be empty")
						}
						return nil
					}),
				huh.NewInput().Title("Cycle store address").Value(&a.cycleStore).Validate(requiredAddress),
				huh.NewInput().Title("Automation address").Value(&a.automation).Validate(requiredAddress),
				huh.NewInput().Title("Executor address").
					Description("Private key is read from EXECUTOR_PRIVATE_KEY").
					Value(&a.executor).Validate(requiredAddress),
				huh.NewInput().Title("Router A address").Description("Optional").Value(&a.routerA).Validate(optionalAddress),
				huh.NewInput().Title("Router B address").Description("Optional").Value(&a.routerB).Validate(optionalAddress),
			),
		).Run()
		if err != nil {
			return "", err
		}
	}

	header("STEP 3: FEES AND GAS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Fee estimate").
				Options(
					huh.NewOption("Estimate gas and convert through the oracle", "oracle"),
					huh.NewOption("Ask the automation contract for the debit", "debit"),
				).
				Value(&a.feeMode),
			huh.NewConfirm().
				Title("Charge the fee in the output token?").
				Value(&a.isOutToken),
			huh.NewSelect[string]().
				Title("Gas price source").
				Options(
					huh.NewOption("Node (eth_gasPrice)", "node"),
					huh.NewOption("Gas price oracle", "oracle"),
					huh.NewOption("HTTP gas tracker", "api"),
					huh.NewOption("Static", "static"),
				).
				Value(&a.gasSource),
			huh.NewInput().
				Title("Max gas price (gwei)").
				Description("Skip execution above this price. Empty disables the ceiling").
				Value(&a.maxGasGwei).
				Validate(validateGwei),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if a.gasSource == "api" {
		header("STEP 3b: GAS TRACKER")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Gas tracker URL").Value(&a.gasAPIURL),
			),
		).Run()
		if err != nil {
			return "", err
		}
	}

	header("STEP 4: RUNTIME")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll interval").
				Description("Duration string (e.g. 15s, 1m)").
				Value(&a.pollInterval).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewConfirm().
				Title("Send executable payloads automatically?").
				Value(&a.autoExec),
			huh.NewInput().
				Title("Dashboard address").
				Description("Empty disables the dashboard").
				Value(&a.webAddr),
		),
	).Run()
	if err != nil {
		return "", err
	}

	header("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Platform: %s\nFee mode: %s\nGas source: %s\nInterval: %s\nAuto exec: %t\n",
		a.platform, a.feeMode, a.gasSource, a.pollInterval, a.autoExec,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	if err := write(DefaultFile, a); err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting keeper...", DefaultFile)))
	time.Sleep(1500 * time.Millisecond)
	return DefaultFile, nil
}

func (a answers) document() config.FileTmp {
	pollInterval, _ := time.ParseDuration(a.pollInterval)
	return config.FileTmp{
		Log: config.LogConfig{Level: "info", File: "logs/keeper.log", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
		Keepers: []config.ConfigTmp{{
			Name:            "keeper",
			Platform:        a.platform,
			RPCURL:          a.rpcURL,
			CycleStore:      a.cycleStore,
			Automation:      a.automation,
			Executor:        a.executor,
			RouterA:         a.routerA,
			RouterB:         a.routerB,
			FeeMode:         a.feeMode,
			IsOutToken:      a.isOutToken,
			GasSource:       a.gasSource,
			GasAPIURL:       a.gasAPIURL,
			MaxGasPriceGwei: a.maxGasGwei,
			PollInterval:    pollInterval,
			AutoExec:        a.autoExec,
			WebAddr:         a.webAddr,
		}},
	}
}

func write(path string, a answers) error {
	data, err := yaml.Marshal(a.document())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func requiredAddress(s string) error {
	if !common.IsHexAddress(s) {
		return fmt.Errorf("must be a 0x address")
	}
	return nil
}

func optionalAddress(s string) error {
	if s == "" {
		return nil
	}
	return requiredAddress(s)
}

func validateGwei(s string) error {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}
