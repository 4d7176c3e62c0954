package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/config"
	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/env"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/logging"
	"github.com/dmagro/oneswap-deployer/internal/output"
	"github.com/dmagro/oneswap-deployer/internal/rpc"
	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/swaplist"
	"github.com/dmagro/oneswap-deployer/internal/tx"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
)

// app holds what a command needs. Fields are filled on demand by the open*
// and connect methods.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    *output.Printer

	ledger  *state.Store
	swaps   *swaplist.List
	client  *rpc.Client
	exec    *tx.Executor
	manager *uniswap.Manager
}

func loadApp() (*app, error) {
	if err := env.Load(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}

	levelName := cfg.Log.Level
	if flags.logLevel != "" {
		levelName = flags.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(flags.format)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logging.New(os.Stderr, level),
		out:    output.New(os.Stdout, format),
	}, nil
}

func (a *app) openLedger() error {
	if a.ledger != nil {
		return nil
	}
	s, err := state.Open(a.cfg.Files.State)
	if err != nil {
		return err
	}
	a.ledger = s
	return nil
}

func (a *app) openSwapList() error {
	if a.swaps != nil {
		return nil
	}
	l, err := swaplist.OpenOrCreate(a.cfg.Files.SwapList, a.logger)
	if err != nil {
		return err
	}
	a.swaps = l
	return nil
}

func (a *app) dial() {
	if a.client == nil {
		a.logger.Info("using node", "url", a.cfg.Node.URL)
		a.client = rpc.NewClient(a.cfg.Node.URL, a.cfg.Node.Timeout, a.cfg.Node.MaxRetries, a.logger)
	}
}

func (a *app) executorConfig() tx.Config {
	return tx.Config{
		Defaults: tx.Options{
			Gas:      a.cfg.Tx.Gas,
			GasPrice: a.cfg.GasPrice(),
		},
		PollInterval: a.cfg.Tx.PollInterval,
		PollAttempts: a.cfg.Tx.PollAttempts,
	}
}

// connect prepares everything that signs: key, node client, executor,
// ledger, swap list and the uniswap manager.
func (a *app) connect() error {
	signer, err := a.cfg.RequireSigner()
	if err != nil {
		return err
	}
	if err := a.openLedger(); err != nil {
		return err
	}
	if err := a.openSwapList(); err != nil {
		return err
	}
	a.dial()
	a.exec = tx.NewExecutor(a.client, signer, a.executorConfig(), a.logger)

	var feeTo common.Address
	if a.cfg.Deployer.FeeAddress != "" {
		if feeTo, err = keys.ParseAddress(a.cfg.Deployer.FeeAddress); err != nil {
			return err
		}
	}
	a.manager = uniswap.NewManager(a.exec, contracts.NewRegistry(a.cfg.Files.Artifacts), a.ledger, uniswap.Config{
		FeeTo:    feeTo,
		Deadline: a.cfg.Tx.Deadline,
	}, a.logger)

	a.logger.Debug("deployer", "address", keys.FormatAddress(signer.Address()))
	return nil
}

func (a *app) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("release state lock", "err", err)
		}
	}
}

// resolveToken accepts an address ("0lt" or bare hex), a swap-list symbol
// or a state key. "OLT" resolves to the zero address when allowNative is
// set.
func (a *app) resolveToken(s string, allowNative bool) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, errors.New("token must not be empty")
	}
	if strings.EqualFold(s, "OLT") {
		if !allowNative {
			return common.Address{}, errors.New("native OLT is not an ERC20 token here; use WOLT")
		}
		return common.Address{}, nil
	}
	if addr, err := keys.ParseAddress(s); err == nil {
		return addr, nil
	}
	if a.swaps != nil {
		if addr, err := a.swaps.Get(s); err == nil {
			return addr, nil
		}
	}
	if a.ledger != nil {
		if addr, err := a.ledger.Address(s); err == nil {
			return addr, nil
		}
	}
	return common.Address{}, fmt.Errorf("unknown token %q: not an address, swap-list symbol or state key", s)
}

// resolveAddress is resolveToken for account arguments; empty means the
// deployer.
func (a *app) resolveAddress(s string) (common.Address, error) {
	if strings.TrimSpace(s) == "" {
		return a.exec.Address(), nil
	}
	return a.resolveToken(s, false)
}
