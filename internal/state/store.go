// Package state is the deployment ledger: logical name -> {address, tx_hash}.
//
// A record is written once and never replaced. Every Put rewrites the whole
// file before returning, so a confirmed deployment survives a crash right
// after it. The file is guarded by an exclusive lock on <path>.lock for the
// lifetime of the Store; a second process gets ErrLocked.
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/samber/lo"

	"github.com/dmagro/oneswap-deployer/internal/jsonfile"
	"github.com/dmagro/oneswap-deployer/internal/keys"
)

var (
	ErrNotFound = errors.New("state record not found")
	ErrExists   = errors.New("state record already exists")
	ErrLocked   = errors.New("state file is locked by another process")
)

// Record is one confirmed deployment. Address is kept as 40 bare hex chars.
type Record struct {
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
}

// Entry pairs a record with its key for listings.
type Entry struct {
	Key string
	Record
}

// DeployFunc performs a deployment and returns the contract address and the
// hash of the transaction that created it.
type DeployFunc func(ctx context.Context) (common.Address, string, error)

type Store struct {
	path string
	lock *flock.Flock

	// deploy serializes SmartDeploy so one key is never deployed twice in
	// the same process.
	deploy sync.Mutex

	mu      sync.RWMutex
	records map[string]Record
}

// Open locks and loads the ledger at path. A missing file is an empty
// ledger; an unreadable or unparsable one is an error and is left as is.
func Open(path string) (*Store, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	records := make(map[string]Record)
	if _, err := jsonfile.Load(path, &records); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	if records == nil {
		records = make(map[string]Record)
	}

	return &Store{path: path, lock: lock, records: records}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Get returns the record for key or an error wrapping ErrNotFound.
func (s *Store) Get(key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return r, nil
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Address returns the parsed contract address stored under key.
func (s *Store) Address(key string) (common.Address, error) {
	r, err := s.Get(key)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := keys.ParseChainAddress(r.Address)
	if err != nil {
		return common.Address{}, fmt.Errorf("state record %s: %w", key, err)
	}
	return addr, nil
}

// Put adds a record and flushes the ledger. An existing key is never
// overwritten.
func (s *Store) Put(key string, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrExists)
	}

	s.records[key] = r
	if err := jsonfile.Save(s.path, s.records); err != nil {
		delete(s.records, key)
		return err
	}
	return nil
}

// All returns every record sorted by key.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := lo.MapToSlice(s.records, func(k string, r Record) Entry {
		return Entry{Key: k, Record: r}
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// SmartDeploy returns the address recorded under key without touching the
// chain, or runs deploy, records its result and returns it. deployed
// reports whether deploy ran.
func (s *Store) SmartDeploy(ctx context.Context, key string, deploy DeployFunc) (addr common.Address, deployed bool, err error) {
	s.deploy.Lock()
	defer s.deploy.Unlock()

	if s.Has(key) {
		addr, err := s.Address(key)
		return addr, false, err
	}

	addr, hash, err := deploy(ctx)
	if err != nil {
		return common.Address{}, false, err
	}
	if err := s.Put(key, Record{Address: keys.BareAddress(addr), TxHash: hash}); err != nil {
		return addr, true, fmt.Errorf("record deployment of %s at %s (tx %s): %w", key, keys.FormatAddress(addr), hash, err)
	}
	return addr, true, nil
}
