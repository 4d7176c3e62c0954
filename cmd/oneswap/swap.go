package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dmagro/oneswap-deployer/internal/output"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
)

func swapCmd() *cobra.Command {
	var (
		from, to, amount string
		exactOut         bool
		slippage         string
		recipient        string
		deadline         time.Duration
		yes              bool
	)
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote and execute a swap through the router",
		Long: `swap prices the trade with the router, prints the quote and asks for
confirmation before sending. Use OLT for native OLT on either side.

By default --amount is what you sell; with --exact-out it is what you buy.`,
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

			req := uniswap.SwapRequest{Kind: uniswap.ExactIn, Deadline: deadline}
			if exactOut {
				req.Kind = uniswap.ExactOut
			}
			if req.From, err = a.resolveToken(from, true); err != nil {
				return err
			}
			if req.To, err = a.resolveToken(to, true); err != nil {
				return err
			}
			amountToken := req.From
			if exactOut {
				amountToken = req.To
			}
			if req.Amount, err = a.tokenAmount(ctx, amountToken, amount); err != nil {
				return err
			}
			req.Slippage = a.cfg.Slippage()
			if slippage != "" {
				if req.Slippage, err = decimal.NewFromString(slippage); err != nil {
					return fmt.Errorf("slippage %q: %w", slippage, err)
				}
			}
			if req.Recipient, err = a.recipient(recipient); err != nil {
				return err
			}

			quote, err := a.manager.QuoteSwap(ctx, req)
			if err != nil {
				return err
			}

			view := output.QuoteView{Quote: quote}
			if view.FromSymbol, err = a.symbol(ctx, req.From); err != nil {
				return err
			}
			if view.ToSymbol, err = a.symbol(ctx, req.To); err != nil {
				return err
			}
			if view.FromDecimals, err = a.decimals(ctx, req.From); err != nil {
				return err
			}
			if view.ToDecimals, err = a.decimals(ctx, req.To); err != nil {
				return err
			}
			if err := a.out.SwapQuote(view); err != nil {
				return err
			}

			if !yes {
				if a.out.JSON() {
					return errors.New("refusing to prompt in json mode; pass --yes")
				}
				ok, err := confirm(os.Stdin, os.Stderr, "Confirm swap?")
				if err != nil {
					return err
				}
				if !ok {
					return a.out.Success("swap cancelled")
				}
			}

			res, err := a.manager.ExecuteSwap(ctx, quote)
			if err != nil {
				return err
			}
			return a.out.Receipt(res.Receipt)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "token sold (OLT for native)")
	cmd.Flags().StringVar(&to, "to", "", "token bought (OLT for native)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount sold, or bought with --exact-out")
	cmd.Flags().BoolVar(&exactOut, "exact-out", false, "treat --amount as the amount bought")
	cmd.Flags().StringVar(&slippage, "slippage", "", "tolerance in percent (default: swap.slippage)")
	cmd.Flags().StringVar(&recipient, "recipient", "", "receiver of the output (default: deployer)")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "router deadline from now (default: tx.deadline)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	for _, name := range []string{"from", "to", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
