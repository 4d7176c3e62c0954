package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "_cache_state.json")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenMissingFile(t *testing.T) {
	s, path := openTemp(t)
	assert.Empty(t, s.All())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the ledger")
}

func TestOpenBrokenFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	require.Error(t, err)

	raw, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(raw), "broken ledger must be left untouched")

	// the lock is released on failure
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpenLocked(t *testing.T) {
	_, path := openTemp(t)

	_, err := Open(path)
	assert.True(t, errors.Is(err, ErrLocked), "got %v", err)
}

func TestGetNotFound(t *testing.T) {
	s, _ := openTemp(t)

	_, err := s.Get("WOLT")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, s.Has("WOLT"))
}

func TestPutFlushesAndNeverOverwrites(t *testing.T) {
	s, path := openTemp(t)

	rec := Record{Address: "1111111111111111111111111111111111111111", TxHash: "AAA"}
	require.NoError(t, s.Put("WOLT", rec))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]Record
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, rec, onDisk["WOLT"])

	err = s.Put("WOLT", Record{Address: "2222222222222222222222222222222222222222", TxHash: "BBB"})
	assert.True(t, errors.Is(err, ErrExists))

	got, err := s.Get("WOLT")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestReopenSeesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("UniswapV2Factory", Record{Address: "3333333333333333333333333333333333333333", TxHash: "F"}))
	require.NoError(t, s.Put("DAI", Record{Address: "4444444444444444444444444444444444444444", TxHash: "D"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries := s.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "DAI", entries[0].Key)
	assert.Equal(t, "UniswapV2Factory", entries[1].Key)

	addr, err := s.Address("DAI")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x4444444444444444444444444444444444444444"), addr)
}

func TestSmartDeployRunsOnce(t *testing.T) {
	s, _ := openTemp(t)
	want := common.HexToAddress("0x5555555555555555555555555555555555555555")

	calls := 0
	deploy := func(context.Context) (common.Address, string, error) {
		calls++
		return want, "HASH", nil
	}

	addr, deployed, err := s.SmartDeploy(context.Background(), "WOLT", deploy)
	require.NoError(t, err)
	assert.True(t, deployed)
	assert.Equal(t, want, addr)

	addr, deployed, err = s.SmartDeploy(context.Background(), "WOLT", deploy)
	require.NoError(t, err)
	assert.False(t, deployed)
	assert.Equal(t, want, addr)
	assert.Equal(t, 1, calls)

	rec, err := s.Get("WOLT")
	require.NoError(t, err)
	assert.Equal(t, Record{Address: "5555555555555555555555555555555555555555", TxHash: "HASH"}, rec)
}

func TestSmartDeployFailureRecordsNothing(t *testing.T) {
	s, path := openTemp(t)

	boom := errors.New("broadcast failed")
	_, _, err := s.SmartDeploy(context.Background(), "WOLT", func(context.Context) (common.Address, string, error) {
		return common.Address{}, "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Has("WOLT"))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSmartDeployAcceptsPrefixedAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	seed := `{"WOLT": {"address": "0lt6666666666666666666666666666666666666666", "tx_hash": "X"}}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	addr, deployed, err := s.SmartDeploy(context.Background(), "WOLT", func(context.Context) (common.Address, string, error) {
		t.Fatal("deploy must not run for a recorded key")
		return common.Address{}, "", nil
	})
	require.NoError(t, err)
	assert.False(t, deployed)
	assert.Equal(t, common.HexToAddress("0x6666666666666666666666666666666666666666"), addr)
}
