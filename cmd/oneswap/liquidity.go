package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/uniswap"
)

func lpInfoCmd() *cobra.Command {
	var token0, token1 string
	cmd := &cobra.Command{
		Use:   "lp-info",
		Short: "Show reserves, prices and k of a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(); err != nil {
				return err
			}

			t0, err := a.resolveToken(token0, false)
			if err != nil {
				return err
			}
			t1, err := a.resolveToken(token1, false)
			if err != nil {
				return err
			}
			info, err := a.manager.PairInfo(cmd.Context(), t0, t1)
			if err != nil {
				return err
			}
			return a.out.PairInfo(info)
		},
	}
	cmd.Flags().StringVar(&token0, "token0", uniswap.WOLT, "first token of the pair")
	cmd.Flags().StringVar(&token1, "token1", uniswap.DAI, "second token of the pair")
	return cmd
}

// liquidityFlags are shared by the add and remove commands.
type liquidityFlags struct {
	to       string
	deadline time.Duration
	force    bool
}

func (f *liquidityFlags) register(cmd *cobra.Command, withForce bool) {
	cmd.Flags().StringVar(&f.to, "to", "", "recipient (default: deployer)")
	cmd.Flags().DurationVar(&f.deadline, "deadline", 0, "router deadline from now (default: tx.deadline)")
	if withForce {
		cmd.Flags().BoolVar(&f.force, "force", false, "add even when the pool already has liquidity")
	}
}

func (a *app) recipient(s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := a.resolveToken(s, false)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func addLiquidityOLTCmd() *cobra.Command {
	var (
		f                  liquidityFlags
		token, amount, olt string
		minToken, minOLT   string
	)
	cmd := &cobra.Command{
		Use:   "add-liquidity-olt",
		Short: "Add a token and native OLT to the token/WOLT pool",
		Long: `add-liquidity-olt funds the token/WOLT pool through the router's
addLiquidityETH. Without --olt the OLT side is taken from the current pool
ratio. A funded pool is left alone unless --force is given.`,
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

			p := uniswap.AddLiquidityOLTParams{Deadline: f.deadline, Force: f.force}
			if p.Token, err = a.resolveToken(token, false); err != nil {
				return err
			}
			if p.AmountToken, err = a.tokenAmount(ctx, p.Token, amount); err != nil {
				return err
			}
			if p.AmountOLT, err = a.oltSide(ctx, p.Token, p.AmountToken, olt); err != nil {
				return err
			}
			if p.MinToken, err = a.optionalAmount(ctx, p.Token, minToken); err != nil {
				return err
			}
			if p.MinOLT, err = a.optionalAmount(ctx, common.Address{}, minOLT); err != nil {
				return err
			}
			if p.To, err = a.recipient(f.to); err != nil {
				return err
			}

			router, err := a.router()
			if err != nil {
				return err
			}
			if err := a.manager.EnsureAllowance(ctx, p.Token, router, p.AmountToken); err != nil {
				return err
			}
			res, err := a.manager.AddLiquidityOLT(ctx, p)
			if err != nil {
				return err
			}
			return a.out.Liquidity(res)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&token, "token", "", "token paired with WOLT")
	cmd.Flags().StringVar(&amount, "amount", "", "token amount")
	cmd.Flags().StringVar(&olt, "olt", "", "OLT amount (default: from the pool ratio)")
	cmd.Flags().StringVar(&minToken, "min-token", "", "minimum token amount accepted by the router")
	cmd.Flags().StringVar(&minOLT, "min-olt", "", "minimum OLT amount accepted by the router")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// oltSide is the explicit --olt amount, or the pool-ratio quote for
// amountToken.
func (a *app) oltSide(ctx context.Context, token common.Address, amountToken *big.Int, explicit string) (*big.Int, error) {
	if explicit != "" {
		return oltAmount(explicit)
	}
	amount, err := a.manager.QuoteOLTForToken(ctx, token, amountToken)
	if errors.Is(err, uniswap.ErrNoLiquidity) {
		return nil, errors.New("pool has no reserves to price OLT from; pass --olt")
	}
	return amount, err
}

func (a *app) router() (common.Address, error) {
	addr, err := a.ledger.Address(uniswap.Router)
	if err != nil {
		return common.Address{}, fmt.Errorf("router is not deployed (run bootstrap first): %w", err)
	}
	return addr, nil
}

func addLiquidityCmd() *cobra.Command {
	var (
		f                liquidityFlags
		tokenA, tokenB   string
		amountA, amountB string
		minA, minB       string
	)
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Add two tokens to their pool",
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

			p := uniswap.AddLiquidityParams{Deadline: f.deadline, Force: f.force}
			if p.TokenA, err = a.resolveToken(tokenA, false); err != nil {
				return err
			}
			if p.TokenB, err = a.resolveToken(tokenB, false); err != nil {
				return err
			}
			if p.AmountA, err = a.tokenAmount(ctx, p.TokenA, amountA); err != nil {
				return err
			}
			if p.AmountB, err = a.tokenAmount(ctx, p.TokenB, amountB); err != nil {
				return err
			}
			if p.MinA, err = a.optionalAmount(ctx, p.TokenA, minA); err != nil {
				return err
			}
			if p.MinB, err = a.optionalAmount(ctx, p.TokenB, minB); err != nil {
				return err
			}
			if p.To, err = a.recipient(f.to); err != nil {
				return err
			}

			router, err := a.router()
			if err != nil {
				return err
			}
			if err := a.manager.EnsureAllowance(ctx, p.TokenA, router, p.AmountA); err != nil {
				return err
			}
			if err := a.manager.EnsureAllowance(ctx, p.TokenB, router, p.AmountB); err != nil {
				return err
			}
			res, err := a.manager.AddLiquidity(ctx, p)
			if err != nil {
				return err
			}
			return a.out.Liquidity(res)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&tokenA, "token-a", "", "first token")
	cmd.Flags().StringVar(&tokenB, "token-b", "", "second token")
	cmd.Flags().StringVar(&amountA, "amount-a", "", "amount of the first token")
	cmd.Flags().StringVar(&amountB, "amount-b", "", "amount of the second token")
	cmd.Flags().StringVar(&minA, "min-a", "", "minimum of the first token accepted by the router")
	cmd.Flags().StringVar(&minB, "min-b", "", "minimum of the second token accepted by the router")
	for _, name := range []string{"token-a", "token-b", "amount-a", "amount-b"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func removeLiquidityOLTCmd() *cobra.Command {
	var (
		f                liquidityFlags
		token, liquidity string
		minToken, minOLT string
	)
	cmd := &cobra.Command{
		Use:   "remove-liquidity-olt",
		Short: "Burn LP tokens of a token/WOLT pool for the token and native OLT",
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

			p := uniswap.RemoveLiquidityOLTParams{Deadline: f.deadline}
			if p.Token, err = a.resolveToken(token, false); err != nil {
				return err
			}
			// LP tokens have 18 decimals
			if p.Liquidity, err = oltAmount(liquidity); err != nil {
				return err
			}
			if p.MinToken, err = a.optionalAmount(ctx, p.Token, minToken); err != nil {
				return err
			}
			if p.MinOLT, err = a.optionalAmount(ctx, common.Address{}, minOLT); err != nil {
				return err
			}
			if p.To, err = a.recipient(f.to); err != nil {
				return err
			}

			res, err := a.manager.RemoveLiquidityOLT(ctx, p)
			if err != nil {
				return err
			}
			return a.out.Liquidity(res)
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&token, "token", "", "token paired with WOLT")
	cmd.Flags().StringVar(&liquidity, "liquidity", "", "LP tokens to burn")
	cmd.Flags().StringVar(&minToken, "min-token", "", "minimum token amount to receive")
	cmd.Flags().StringVar(&minOLT, "min-olt", "", "minimum OLT to receive")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("liquidity")
	return cmd
}

func removeLiquidityCmd() *cobra.Command {
	var (
		f                         liquidityFlags
		tokenA, tokenB, liquidity string
		minA, minB                string
	)
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Burn LP tokens of a pool for both tokens",
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

			p := uniswap.RemoveLiquidityParams{Deadline: f.deadline}
			if p.TokenA, err = a.resolveToken(tokenA, false); err != nil {
				return err
			}
			if p.TokenB, err = a.resolveToken(tokenB, false); err != nil {
				return err
			}
			if p.Liquidity, err = oltAmount(liquidity); err != nil {
				return err
			}
			if p.MinA, err = a.optionalAmount(ctx, p.TokenA, minA); err != nil {
				return err
			}
			if p.MinB, err = a.optionalAmount(ctx, p.TokenB, minB); err != nil {
				return err
			}
			if p.To, err = a.recipient(f.to); err != nil {
				return err
			}

			res, err := a.manager.RemoveLiquidity(ctx, p)
			if err != nil {
				return err
			}
			return a.out.Liquidity(res)
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&tokenA, "token-a", "", "first token")
	cmd.Flags().StringVar(&tokenB, "token-b", "", "second token")
	cmd.Flags().StringVar(&liquidity, "liquidity", "", "LP tokens to burn")
	cmd.Flags().StringVar(&minA, "min-a", "", "minimum of the first token to receive")
	cmd.Flags().StringVar(&minB, "min-b", "", "minimum of the second token to receive")
	for _, name := range []string{"token-a", "token-b", "liquidity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
