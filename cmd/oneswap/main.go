// Command oneswap deploys and operates the OneSwap (Uniswap V2) contracts
// on a OneLedger node.
//
// Usage examples:
//
//	oneswap bootstrap --token-rate 0.02177
//	oneswap lp-info --token0 WOLT --token1 DAI
//	oneswap swap --from OLT --to DAI --amount 10 --slippage 0.5
//	oneswap state list --format json
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmagro/oneswap-deployer/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		output.Error(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
