// Package config loads the deployer configuration from YAML, applies
// defaults and environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/logging"
)

// DefaultPath is used when --config is not given.
const DefaultPath = "config/oneswap.yaml"

// Environment variables that override the file.
const (
	EnvNodeURL      = "NODE_URL"
	EnvPrivateKey   = "DEPLOYER_PK"
	EnvFeeAddress   = "FEE_ADDRESS"
	EnvStateFile    = "STATE_FILE"
	EnvSwapListFile = "SWAPLIST_FILE"
	EnvArtifactsDir = "ARTIFACTS_DIR"
	EnvLogLevel     = "LOG_LEVEL"
)

type Config struct {
	Node     Node     `yaml:"node"`
	Deployer Deployer `yaml:"deployer"`
	Files    Files    `yaml:"files"`
	Tx       Tx       `yaml:"tx"`
	Swap     Swap     `yaml:"swap"`
	Log      Log      `yaml:"log"`
}

type Node struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// MaxRetries applies to read-only queries only.
	MaxRetries int `yaml:"max_retries" validate:"gte=0,lte=10"`
}

type Deployer struct {
	// PrivateKey is hex: a 32-byte seed or a 64-byte Ed25519 key. Usually
	// supplied through DEPLOYER_PK.
	PrivateKey string `yaml:"private_key"`
	// FeeAddress becomes the factory fee setter. Empty means the deployer.
	FeeAddress string `yaml:"fee_address"`
}

type Files struct {
	State     string `yaml:"state" validate:"required"`
	SwapList  string `yaml:"swaplist" validate:"required"`
	Artifacts string `yaml:"artifacts" validate:"required"`
}

type Tx struct {
	Gas uint64 `yaml:"gas" validate:"gt=0"`
	// GasPrice is in units of 10^9 base units.
	GasPrice     string        `yaml:"gas_price" validate:"required"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	PollAttempts int           `yaml:"poll_attempts" validate:"gt=0"`
	// Deadline is added to the current time for router calls.
	Deadline time.Duration `yaml:"deadline" validate:"gt=0"`
}

type Swap struct {
	// Slippage is the default tolerance in percent.
	Slippage string `yaml:"slippage" validate:"required"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Node: Node{
			URL:        "http://127.0.0.1:26602/jsonrpc",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		Files: Files{
			State:     "_cache_state.json",
			SwapList:  "swaplist.json",
			Artifacts: "build/contracts",
		},
		Tx: Tx{
			Gas:          10_000_000,
			GasPrice:     "1",
			PollInterval: time.Second,
			PollAttempts: 25,
			Deadline:     300 * time.Second,
		},
		Swap: Swap{Slippage: "0.5"},
		Log:  Log{Level: "info"},
	}
}

// Load reads path on top of Default, expanding ${VAR} references, then
// applies environment overrides and validates. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Node.URL, EnvNodeURL)
	override(&c.Deployer.PrivateKey, EnvPrivateKey)
	override(&c.Deployer.FeeAddress, EnvFeeAddress)
	override(&c.Files.State, EnvStateFile)
	override(&c.Files.SwapList, EnvSwapListFile)
	override(&c.Files.Artifacts, EnvArtifactsDir)
	override(&c.Log.Level, EnvLogLevel)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the values that need parsing. The
// private key is not required here; see RequireSigner.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}

	u, err := url.Parse(c.Node.URL)
	if err != nil {
		return fmt.Errorf("node.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("node.url: invalid scheme %q (expected http or https)", u.Scheme)
	}

	if c.Deployer.FeeAddress != "" {
		if err := keys.ValidateAddress(c.Deployer.FeeAddress); err != nil {
			return fmt.Errorf("deployer.fee_address: %w", err)
		}
	}

	price, err := decimal.NewFromString(c.Tx.GasPrice)
	if err != nil || !price.IsPositive() {
		return fmt.Errorf("tx.gas_price: %q is not a positive number", c.Tx.GasPrice)
	}

	slippage, err := decimal.NewFromString(c.Swap.Slippage)
	if err != nil || slippage.IsNegative() || slippage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("swap.slippage: %q must be a number between 0 and 100", c.Swap.Slippage)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Node.Timeout < 500*time.Millisecond {
		fmt.Fprintf(os.Stderr, "Warning: node timeout is very low (%s); requests may fail under normal network jitter\n", c.Node.Timeout)
	}
	return nil
}

// RequireSigner parses the deployer key, for commands that sign.
func (c *Config) RequireSigner() (*keys.Signer, error) {
	if c.Deployer.PrivateKey == "" {
		return nil, fmt.Errorf("no deployer key: set %s or deployer.private_key", EnvPrivateKey)
	}
	return keys.ParsePrivateKey(c.Deployer.PrivateKey)
}

// GasPrice returns tx.gas_price. Validate has already checked it.
func (c *Config) GasPrice() decimal.Decimal {
	return decimal.RequireFromString(c.Tx.GasPrice)
}

// Slippage returns swap.slippage. Validate has already checked it.
func (c *Config) Slippage() decimal.Decimal {
	return decimal.RequireFromString(c.Swap.Slippage)
}
