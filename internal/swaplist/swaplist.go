// Package swaplist maps user-facing token symbols to addresses.
package swaplist

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/samber/lo"

	"github.com/dmagro/oneswap-deployer/internal/jsonfile"
	"github.com/dmagro/oneswap-deployer/internal/keys"
)

var ErrNotFound = errors.New("symbol not in swap list")

// Token is one swap-list entry.
type Token struct {
	Symbol  string `json:"name"`
	Address string `json:"address"`
}

type List struct {
	path string
	lock *flock.Flock

	mu      sync.RWMutex
	entries map[string]string
}

// OpenOrCreate loads the list at path. A missing or unparsable file is
// replaced by an empty list.
func OpenOrCreate(path string, logger *slog.Logger) (*List, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := make(map[string]string)
	found, err := jsonfile.Load(path, &entries)
	if err != nil || !found {
		if err != nil {
			logger.Warn("swap list file broken, recreating", "path", path, "err", err)
		} else {
			logger.Info("swap list file not found, creating", "path", path)
		}
		entries = make(map[string]string)
		if err := jsonfile.Save(path, entries); err != nil {
			return nil, err
		}
	}
	if entries == nil {
		entries = make(map[string]string)
	}

	return &List{
		path:    path,
		lock:    flock.New(path + ".lock"),
		entries: entries,
	}, nil
}

// Get returns the address recorded for symbol.
func (l *List) Get(symbol string) (common.Address, error) {
	l.mu.RLock()
	raw, ok := l.entries[symbol]
	l.mu.RUnlock()

	if !ok {
		return common.Address{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return keys.ParseChainAddress(raw)
}

// Add records symbol -> address and persists the list. An existing symbol
// is repointed.
func (l *List) Add(symbol, address string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return errors.New("symbol must not be empty")
	}
	addr, err := keys.ParseAddress(address)
	if err != nil {
		return err
	}

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	defer l.lock.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another process may have added entries since we loaded.
	onDisk := make(map[string]string)
	if _, err := jsonfile.Load(l.path, &onDisk); err == nil && onDisk != nil {
		l.entries = lo.Assign(onDisk, l.entries)
	}

	l.entries[symbol] = keys.BareAddress(addr)
	return jsonfile.Save(l.path, l.entries)
}

// List returns all entries sorted by symbol.
func (l *List) List() []Token {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tokens := lo.MapToSlice(l.entries, func(symbol, address string) Token {
		return Token{Symbol: symbol, Address: address}
	})
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })
	return tokens
}
