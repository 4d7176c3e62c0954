package main

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
)

func bootstrapCmd() *cobra.Command {
	var (
		initialOLT string
		tokenRate  string
		daiSupply  string
	)
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Deploy WOLT, factory, router and test DAI and fund the DAI/WOLT pool",
		Long: `bootstrap brings up a complete OneSwap deployment. Contracts already in the
state file are reused and a funded pool is left alone, so rerunning after a
failure only performs the missing steps.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}

			olt, err := oltAmount(initialOLT)
			if err != nil {
				return err
			}
			rate, err := decimal.NewFromString(tokenRate)
			if err != nil {
				return fmt.Errorf("token rate %q: %w", tokenRate, err)
			}
			// DAI has 18 decimals like OLT
			mint, err := oltAmount(daiSupply)
			if err != nil {
				return err
			}

			res, err := a.manager.Bootstrap(cmd.Context(), uniswap.BootstrapParams{
				InitialOLT: olt,
				TokenRate:  rate,
				DAIMint:    mint,
			})
			if err != nil {
				return err
			}
			return a.out.Bootstrap(res)
		},
	}
	cmd.Flags().StringVar(&initialOLT, "olt", "1000000", "OLT put into the initial DAI/WOLT pool")
	cmd.Flags().StringVar(&tokenRate, "token-rate", "0.02177", "DAI per OLT for the initial pool")
	cmd.Flags().StringVar(&daiSupply, "dai-supply", "50000", "DAI minted to the deployer on first deployment")
	return cmd
}

func deployCmd() *cobra.Command {
	var (
		key   string
		value string
	)
	cmd := &cobra.Command{
		Use:   "deploy <artifact> [constructor args...]",
		Short: "Deploy an artifact unless the state file already records it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}

			name := args[0]
			c, err := contracts.NewRegistry(a.cfg.Files.Artifacts).Get(name)
			if err != nil {
				return err
			}
			ctorArgs, err := contracts.ParseArgs(c.ABI.Constructor.Inputs, args[1:])
			if err != nil {
				return fmt.Errorf("%s constructor: %w", name, err)
			}

			var amount *big.Int
			if value != "" {
				if amount, err = oltAmount(value); err != nil {
					return err
				}
			}
			if key == "" {
				key = name
			}

			addr, err := a.manager.Deploy(cmd.Context(), key, name, amount, ctorArgs...)
			if err != nil {
				return err
			}
			return a.out.Success("%s at %s", key, keys.FormatAddress(addr))
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "state key to record the address under (default: artifact name)")
	cmd.Flags().StringVar(&value, "value", "", "OLT sent with the deployment")
	return cmd
}
