package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/tx"
)

func waitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <tx-hash>",
		Short: "Poll the node until a transaction is mined and print its receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			a.dial()

			// Wait never signs, so no key is needed
			exec := tx.NewExecutor(a.client, nil, a.executorConfig(), a.logger)
			r, err := exec.Wait(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.out.Receipt(r); err != nil {
				return err
			}
			return r.Check()
		},
	}
}

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the deployment state file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded deployments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				defer a.close()
				if err := a.openLedger(); err != nil {
					return err
				}
				return a.out.StateEntries(a.ledger.All())
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the address recorded under key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				defer a.close()
				if err := a.openLedger(); err != nil {
					return err
				}
				addr, err := a.ledger.Address(args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return a.out.Success("%s %s", args[0], keys.FormatAddress(addr))
			},
		},
	)
	return cmd
}

func swapListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swaplist",
		Short: "Manage the token symbols accepted by other commands",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List known tokens",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				if err := a.openSwapList(); err != nil {
					return err
				}
				return a.out.SwapList(a.swaps.List())
			},
		},
		&cobra.Command{
			Use:   "add <symbol> <address>",
			Short: "Register a token symbol",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				if err := a.openSwapList(); err != nil {
					return err
				}
				if err := a.swaps.Add(args[0], args[1]); err != nil {
					return err
				}
				return a.out.Success("added %s", args[0])
			},
		},
		&cobra.Command{
			Use:   "get <symbol>",
			Short: "Print the address of a symbol",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				if err := a.openSwapList(); err != nil {
					return err
				}
				addr, err := a.swaps.Get(args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return a.out.Success("%s %s", args[0], keys.FormatAddress(addr))
			},
		},
	)
	return cmd
}
