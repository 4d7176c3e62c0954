package main

import (
	"math/big"

	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/output"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

func balanceCmd() *cobra.Command {
	var (
		tokens  []string
		address string
	)
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show OLT and token balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}
			ctx := cmd.Context()

			holder, err := a.resolveAddress(address)
			if err != nil {
				return err
			}
			native, err := a.client.Balance(ctx, keys.FormatAddress(holder))
			if err != nil {
				return err
			}

			view := output.BalanceView{Address: keys.FormatAddress(holder), OLT: native}
			for _, t := range tokens {
				token, err := a.resolveToken(t, false)
				if err != nil {
					return err
				}
				info, err := a.manager.TokenInfo(ctx, token, holder)
				if err != nil {
					return err
				}
				view.Tokens = append(view.Tokens, *info)
			}
			return a.out.Balance(view)
		},
	}
	cmd.Flags().StringSliceVar(&tokens, "token", nil, "token to include (address, swap-list symbol or state key); repeatable")
	cmd.Flags().StringVar(&address, "address", "", "account to inspect (default: deployer)")
	return cmd
}

func approveCmd() *cobra.Command {
	var (
		token   string
		spender string
		amount  string
	)
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Set the deployer's allowance for a spender",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}
			ctx := cmd.Context()

			tokenAddr, err := a.resolveToken(token, false)
			if err != nil {
				return err
			}
			spenderAddr, err := a.resolveToken(spender, false)
			if err != nil {
				return err
			}
			var wad *big.Int
			if amount != "max" {
				if wad, err = a.tokenAmount(ctx, tokenAddr, amount); err != nil {
					return err
				}
			}

			sent, err := a.manager.EnsureApproval(ctx, tokenAddr, spenderAddr, wad)
			if err != nil {
				return err
			}
			if !sent {
				return a.out.Success("allowance already set, nothing sent")
			}
			return a.out.Success("approved %s for %s", keys.FormatAddress(spenderAddr), keys.FormatAddress(tokenAddr))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token to approve")
	cmd.Flags().StringVar(&spender, "spender", uniswap.Router, "spender address or state key")
	cmd.Flags().StringVar(&amount, "amount", "max", `allowance in token units, or "max"`)
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func wrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrap <amount>",
		Short: "Deposit OLT into WOLT until the deployer holds amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}

			target, err := oltAmount(args[0])
			if err != nil {
				return err
			}
			deposited, err := a.manager.WrapOLT(cmd.Context(), target)
			if err != nil {
				return err
			}
			if deposited.Sign() == 0 {
				return a.out.Success("WOLT balance already covers %s", args[0])
			}
			return a.out.Success("wrapped %s OLT", units.FromBaseUnits(deposited, units.OLTDecimals))
		},
	}
	return cmd
}
