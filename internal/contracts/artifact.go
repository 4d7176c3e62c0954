package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// artifact is the truffle build output shape: {"abi": [...], "bytecode": "0x..."}.
type artifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

// Load reads the artifact for name from dir. Two layouts are accepted:
//
//	<dir>/<name>.json                        {"abi": [...], "bytecode": "0x..."}
//	<dir>/abi/<name>.json + <dir>/bytecode/<name>.txt
func Load(dir, name string) (*Contract, error) {
	combined := filepath.Join(dir, name+".json")
	raw, err := os.ReadFile(combined)
	if err == nil {
		var a artifact
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", combined, err)
		}
		if len(a.ABI) == 0 {
			return nil, fmt.Errorf("artifact %s has no abi", combined)
		}
		return New(name, a.ABI, a.Bytecode)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read artifact %s: %w", combined, err)
	}

	abiPath := filepath.Join(dir, "abi", name+".json")
	abiJSON, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, fmt.Errorf("artifact %q not found in %s: %w", name, dir, err)
	}

	bytecode, err := os.ReadFile(filepath.Join(dir, "bytecode", name+".txt"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read bytecode for %s: %w", name, err)
	}
	return New(name, abiJSON, string(bytecode))
}

// Registry loads artifacts from one directory and caches them. Safe for
// concurrent use.
type Registry struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Contract
}

func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, cache: make(map[string]*Contract)}
}

// Get returns the contract for name, loading it on first use.
func (r *Registry) Get(name string) (*Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[name]; ok {
		return c, nil
	}
	c, err := Load(r.dir, name)
	if err != nil {
		return nil, err
	}
	r.cache[name] = c
	return c, nil
}

// Bind loads name and validates that its ABI declares every method listed.
func (r *Registry) Bind(name string, methods ...string) (*Contract, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := c.Require(methods...); err != nil {
		return nil, err
	}
	return c, nil
}
