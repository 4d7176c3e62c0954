package main

import (
	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/config"
	"github.com/dmagro/oneswap-deployer/internal/output"
)

type globalFlags struct {
	config   string
	logLevel string
	format   string
}

var flags globalFlags

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oneswap",
		Short: "Deploy and operate OneSwap on a OneLedger node",
		Long: `oneswap deploys the OneSwap contracts (WOLT, factory, router, test DAI),
records every deployed address in a local state file, and drives liquidity
and swaps through the router. Every step is skipped when already done, so
commands can be rerun after a failure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", config.DefaultPath, "path to config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&flags.format, "format", string(output.FormatTerminal), "output format: terminal or json")

	cmd.AddCommand(
		bootstrapCmd(),
		deployCmd(),
		balanceCmd(),
		lpInfoCmd(),
		approveCmd(),
		wrapCmd(),
		addLiquidityCmd(),
		addLiquidityOLTCmd(),
		removeLiquidityCmd(),
		removeLiquidityOLTCmd(),
		swapCmd(),
		waitCmd(),
		stateCmd(),
		swapListCmd(),
	)

	return cmd
}
