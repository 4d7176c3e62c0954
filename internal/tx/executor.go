// Package tx drives a transaction through its lifecycle:
//
//	BUILDING -> RAW_CREATED -> SIGNED -> BROADCAST -> PENDING -> MINED_OK | MINED_FAILED | TIMED_OUT
//
// The node serializes the raw transaction (tx.CreateRawSend); the executor
// only signs the bytes it gets back, so the private key never leaves the
// process. Read-only calls skip the pipeline and go straight to query.EVMCall.
package tx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/rpc"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollAttempts = 25
)

// Node is the subset of the chain RPC surface the executor needs.
type Node interface {
	EVMAccount(ctx context.Context, address string) (uint64, *big.Int, error)
	CreateRawSend(ctx context.Context, payload rpc.SendPayload) (string, error)
	BroadcastTxSync(ctx context.Context, envelope any) (string, error)
	Tx(ctx context.Context, hash string) (*rpc.TxLookup, error)
	EVMCall(ctx context.Context, payload rpc.SendPayload) ([]byte, error)
}

// Config holds executor defaults.
type Config struct {
	Defaults     Options
	PollInterval time.Duration
	PollAttempts int
}

// Receipt is the decoded outcome of a mined transaction.
type Receipt struct {
	Hash            string
	ContractAddress *common.Address
	Status          bool
	GasUsed         uint64
	GasWanted       uint64
	Log             string
	Events          Events
}

// Executor owns the RPC transport and the signing key.
type Executor struct {
	node     Node
	signer   *keys.Signer
	logger   *slog.Logger
	defaults Options
	interval time.Duration
	attempts int
}

func NewExecutor(node Node, signer *keys.Signer, cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultPollAttempts
	}
	return &Executor{
		node:     node,
		signer:   signer,
		logger:   logger,
		defaults: cfg.Defaults.merge(DefaultOptions()),
		interval: cfg.PollInterval,
		attempts: cfg.PollAttempts,
	}
}

// Address is the signer's address.
func (e *Executor) Address() common.Address { return e.signer.Address() }

// Balance returns the native balance of addr in base units.
func (e *Executor) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	_, balance, err := e.node.EVMAccount(ctx, keys.FormatAddress(addr))
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Deploy creates c with constructor args and returns the receipt, whose
// ContractAddress is always set on success.
func (e *Executor) Deploy(ctx context.Context, c *contracts.Contract, opts Options, args ...any) (*Receipt, error) {
	data, err := c.EncodeDeploy(args...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("deploying contract", "contract", c.Name)
	r, err := e.Send(ctx, nil, data, opts)
	if err != nil {
		return nil, err
	}
	if r.ContractAddress == nil {
		return r, &ExecutionRevertedError{Hash: r.Hash, Log: "no contract address in tx events"}
	}
	return r, nil
}

// Execute sends a state-changing call of method on the contract at to.
// The receipt's Status reflects the VM status marker.
func (e *Executor) Execute(ctx context.Context, c *contracts.Contract, to common.Address, method string, opts Options, args ...any) (*Receipt, error) {
	data, err := c.EncodeCall(method, args...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("executing", "contract", c.Name, "method", method, "to", keys.FormatAddress(to))
	return e.Send(ctx, &to, data, opts)
}

// Query runs method read-only and returns the decoded result. A node error
// comes back as *rpc.ProtocolAPIError.
func (e *Executor) Query(ctx context.Context, c *contracts.Contract, to common.Address, method string, opts Options, args ...any) (any, error) {
	data, err := c.EncodeCall(method, args...)
	if err != nil {
		return nil, err
	}

	payload, err := e.build(ctx, &to, data, opts)
	if err != nil {
		return nil, err
	}

	out, err := e.node.EVMCall(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("call %s.%s on %s: %w", c.Name, method, keys.FormatAddress(to), err)
	}
	return c.DecodeResult(method, out)
}

// Send runs the full pipeline for raw call data. A nil to creates a contract.
func (e *Executor) Send(ctx context.Context, to *common.Address, data []byte, opts Options) (*Receipt, error) {
	payload, err := e.build(ctx, to, data, opts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("creating raw tx", "from", payload.From, "to", payload.To, "nonce", payload.Nonce)
	rawTx, err := e.node.CreateRawSend(ctx, payload)
	if err != nil {
		return nil, &BroadcastPreparationError{Err: err}
	}
	e.logger.Debug("raw tx created")

	envelope, err := e.signer.SignRawTx(rawTx)
	if err != nil {
		return nil, &BroadcastPreparationError{Err: err}
	}

	e.logger.Info("broadcasting to the network", "nonce", payload.Nonce)
	hash, err := e.node.BroadcastTxSync(ctx, envelope)
	if err != nil {
		return nil, &BroadcastError{From: payload.From, Nonce: payload.Nonce, Err: err}
	}
	e.logger.Info("transaction broadcast", "hash", hash)

	return e.Wait(ctx, hash)
}

// build merges defaults, fills the nonce when absent and normalizes amounts.
func (e *Executor) build(ctx context.Context, to *common.Address, data []byte, opts Options) (rpc.SendPayload, error) {
	opts = opts.merge(e.defaults)

	from := e.signer.Address()
	if opts.From != nil {
		from = *opts.From
	}

	if opts.Nonce == nil {
		nonce, _, err := e.node.EVMAccount(ctx, keys.FormatAddress(from))
		if err != nil {
			return rpc.SendPayload{}, fmt.Errorf("fetch nonce: %w", err)
		}
		opts.Nonce = &nonce
	}

	return BuildPayload(from, to, data, opts)
}

// Wait polls query.Tx until the transaction is mined or the attempt budget
// is spent. It sleeps only between attempts. Node errors and transport
// errors both count as a failed attempt.
func (e *Executor) Wait(ctx context.Context, hash string) (*Receipt, error) {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		lookup, err := e.node.Tx(ctx, hash)
		if err == nil {
			return e.receipt(hash, lookup)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var pae *rpc.ProtocolAPIError
		var te *rpc.TransportError
		if !errors.As(err, &pae) && !errors.As(err, &te) {
			return nil, err
		}
		lastErr = err

		e.logger.Info("transaction not mined, waiting", "hash", hash, "attempt", attempt, "of", e.attempts)
		if attempt == e.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.interval):
		}
	}

	return nil, &ConfirmationTimeoutError{Hash: hash, Attempts: e.attempts, Err: lastErr}
}

func (e *Executor) receipt(hash string, lookup *rpc.TxLookup) (*Receipt, error) {
	res := lookup.Result.TxResult
	e.logger.Info("transaction mined",
		"hash", hash,
		"gas_used", uint64(res.GasUsed),
		"gas_wanted", uint64(res.GasWanted))

	if res.Code != 0 {
		return nil, &ExecutionRevertedError{Hash: hash, Code: uint64(res.Code), Log: res.Log}
	}

	events, err := DecodeEvents(res.Events)
	if err != nil {
		return nil, err
	}
	if vmErr, ok := events.Get(EventError); ok {
		return nil, &ExecutionRevertedError{Hash: hash, Log: vmErr.Value}
	}

	r := &Receipt{
		Hash:      hash,
		GasUsed:   uint64(res.GasUsed),
		GasWanted: uint64(res.GasWanted),
		Log:       res.Log,
		Events:    events,
	}

	if attr, ok := events.Get(EventContract); ok {
		addr, err := contractAddress(attr)
		if err != nil {
			return nil, fmt.Errorf("tx %s: %w", hash, err)
		}
		r.ContractAddress = &addr
		r.Status = true
	} else if attr, ok := events.Get(EventStatus); ok {
		r.Status = statusOK(attr)
	}
	return r, nil
}

// Check turns a mined-but-unsuccessful status marker into an
// *ExecutionRevertedError.
func (r *Receipt) Check() error {
	if r.Status {
		return nil
	}
	return &ExecutionRevertedError{Hash: r.Hash, Log: "vm status marker is zero"}
}
