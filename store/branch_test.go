package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

// faultyStorage fails the operations listed for the given keys.
type faultyStorage struct {
	*kvstore.Memory
	mu       sync.Mutex
	failGet  map[string]bool
	failSet  map[string]bool
	failDel  map[string]bool
	setCalls int
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{
		Memory:  kvstore.NewMemory(),
		failGet: map[string]bool{},
		failSet: map[string]bool{},
		failDel: map[string]bool{},
	}
}

var errDisk = errors.New("disk full")

func (f *faultyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGet[key]
	f.mu.Unlock()
	if fail {
		return "", false, errDisk
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyStorage) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet[key]
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *faultyStorage) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDel[key]
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.Memory.Remove(ctx, key)
}

func outletA() Branch {
	return Branch{
		ID:   "1",
		Name: "Outlet A",
		Address: &BranchAddress{
			Province: &Region{ID: "31", Name: "DKI Jakarta"},
			City:     &Region{ID: "3171", Name: "Jakarta Selatan"},
			Address:  "Jl. Kemang Raya 10",
		},
	}
}

func TestBranchStore_SetThenLoadOnNewInstance(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()

	first := NewBranchStore(mem, zap.NewNop())
	require.NoError(t, first.SetCurrentBranch(ctx, Branch{ID: "1", Name: "Outlet A"}))

	second := NewBranchStore(mem, zap.NewNop())
	assert.True(t, second.IsLoading())
	second.LoadFromStorage(ctx)

	assert.False(t, second.IsLoading())
	assert.Equal(t, "1", second.CurrentBranchID())
	assert.Equal(t, "Outlet A", second.CurrentBranchName())
	require.NotNil(t, second.CurrentBranchData())
	assert.Equal(t, "1", second.CurrentBranchData().ID)
}

func TestBranchStore_WritesEveryKey(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	s := NewBranchStore(mem, nil)

	require.NoError(t, s.SetCurrentBranch(ctx, outletA()))
	assert.ElementsMatch(t, BranchKeys, mem.Keys())

	legacy, ok, err := mem.Get(ctx, LegacyBranchIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", legacy)

	raw, _, err := mem.Get(ctx, BranchDataKey)
	require.NoError(t, err)
	var decoded Branch
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, outletA(), decoded)
}

func TestBranchStore_CorruptRecordDiscarded(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	require.NoError(t, mem.Set(ctx, BranchIDKey, "2"))
	require.NoError(t, mem.Set(ctx, BranchNameKey, "Outlet B"))
	require.NoError(t, mem.Set(ctx, BranchDataKey, "{not json"))

	core, logs := observer.New(zap.WarnLevel)
	s := NewBranchStore(mem, zap.New(core))
	s.LoadFromStorage(ctx)

	assert.False(t, s.IsLoading())
	assert.Nil(t, s.CurrentBranchData())
	assert.Equal(t, "2", s.CurrentBranchID())
	assert.Equal(t, "Outlet B", s.CurrentBranchName())
	assert.Equal(t, 1, logs.FilterMessage("discarding corrupt branch record").Len())
}

func TestBranchStore_LegacyIDFallback(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	require.NoError(t, mem.Set(ctx, LegacyBranchIDKey, "9"))

	s := NewBranchStore(mem, nil)
	s.LoadFromStorage(ctx)
	assert.Equal(t, "9", s.CurrentBranchID())
}

func TestBranchStore_LoadFaultLeavesUnknown(t *testing.T) {
	ctx := context.Background()
	fs := newFaultyStorage()
	require.NoError(t, fs.Memory.Set(ctx, BranchIDKey, "1"))
	fs.failGet[BranchNameKey] = true

	s := NewBranchStore(fs, nil)
	s.LoadFromStorage(ctx)

	assert.False(t, s.IsLoading())
	assert.Empty(t, s.CurrentBranchID())
	assert.Nil(t, s.CurrentBranchData())
}

func TestBranchStore_FailedWriteKeepsMemory(t *testing.T) {
	ctx := context.Background()
	fs := newFaultyStorage()
	s := NewBranchStore(fs, nil)
	require.NoError(t, s.SetCurrentBranch(ctx, outletA()))

	fs.failSet[BranchDataKey] = true
	err := s.SetCurrentBranch(ctx, Branch{ID: "2", Name: "Outlet B"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errDisk)

	assert.Equal(t, "1", s.CurrentBranchID())
	assert.Equal(t, "Outlet A", s.CurrentBranchName())
}

func TestBranchStore_Clear(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	s := NewBranchStore(mem, nil)
	require.NoError(t, s.SetCurrentBranch(ctx, outletA()))

	require.NoError(t, s.ClearCurrentBranch(ctx))
	assert.Empty(t, mem.Keys())
	assert.Empty(t, s.CurrentBranchID())
	assert.Nil(t, s.CurrentBranchData())

	// already cleared
	require.NoError(t, s.ClearCurrentBranch(ctx))
}

func TestBranchStore_PartialClearIsReported(t *testing.T) {
	ctx := context.Background()
	fs := newFaultyStorage()
	core, logs := observer.New(zap.ErrorLevel)
	s := NewBranchStore(fs, zap.New(core))
	require.NoError(t, s.SetCurrentBranch(ctx, outletA()))

	fs.failDel[BranchNameKey] = true
	fs.failDel[LegacyBranchIDKey] = true
	err := s.ClearCurrentBranch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), BranchNameKey)
	assert.Contains(t, err.Error(), LegacyBranchIDKey)
	assert.Equal(t, 1, logs.FilterMessage("failed to clear branch selection").Len())

	assert.Equal(t, "1", s.CurrentBranchID())
}

func TestBranchStore_DataIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewBranchStore(kvstore.NewMemory(), nil)
	b := outletA()
	require.NoError(t, s.SetCurrentBranch(ctx, b))

	b.Address.City.Name = "changed"
	got := s.CurrentBranchData()
	assert.Equal(t, "Jakarta Selatan", got.Address.City.Name)

	got.Name = "changed"
	assert.Equal(t, "Outlet A", s.Snapshot().Data.Name)
}

// pausedStorage holds the first Get of key after reading it, until release
// is closed.
type pausedStorage struct {
	*kvstore.Memory
	key     string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausedStorage(key string) *pausedStorage {
	return &pausedStorage{
		Memory:  kvstore.NewMemory(),
		key:     key,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *pausedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := p.Memory.Get(ctx, key)
	if key == p.key {
		p.once.Do(func() {
			close(p.entered)
			<-p.release
		})
	}
	return v, ok, err
}

func TestBranchStore_SetDuringLoadWins(t *testing.T) {
	ctx := context.Background()
	ps := newPausedStorage(BranchIDKey)
	require.NoError(t, NewBranchStore(ps.Memory, nil).SetCurrentBranch(ctx, Branch{ID: "1", Name: "Outlet A"}))
	s := NewBranchStore(ps, nil)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		s.LoadFromStorage(ctx)
	}()
	<-ps.entered

	saved := make(chan error, 1)
	go func() {
		saved <- s.SetCurrentBranch(ctx, Branch{ID: "2", Name: "Outlet B"})
	}()
	assert.Never(t, func() bool { return len(saved) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"set must wait for the load")

	close(ps.release)
	<-loaded
	require.NoError(t, <-saved)

	assert.Equal(t, "2", s.CurrentBranchID())
	assert.Equal(t, "Outlet B", s.CurrentBranchName())
	stored, _, err := ps.Memory.Get(ctx, BranchIDKey)
	require.NoError(t, err)
	assert.Equal(t, stored, s.CurrentBranchID())
}

func TestBranchStore_ClearDuringLoadWins(t *testing.T) {
	ctx := context.Background()
	ps := newPausedStorage(BranchNameKey)
	require.NoError(t, NewBranchStore(ps.Memory, nil).SetCurrentBranch(ctx, outletA()))
	s := NewBranchStore(ps, nil)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		s.LoadFromStorage(ctx)
	}()
	<-ps.entered

	cleared := make(chan error, 1)
	go func() { cleared <- s.ClearCurrentBranch(ctx) }()

	close(ps.release)
	<-loaded
	require.NoError(t, <-cleared)

	assert.Empty(t, s.CurrentBranchID())
	assert.Nil(t, s.CurrentBranchData())
	assert.Empty(t, ps.Memory.Keys())
}

func TestBranchStore_RacingSetsStayConsistent(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	s := NewBranchStore(mem, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := strconv.Itoa(i)
			assert.NoError(t, s.SetCurrentBranch(ctx, Branch{ID: id, Name: "Outlet " + id}))
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	stored := map[string]string{}
	for _, key := range BranchKeys {
		v, ok, err := mem.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, key)
		stored[key] = v
	}
	assert.Equal(t, snap.ID, stored[BranchIDKey])
	assert.Equal(t, snap.ID, stored[LegacyBranchIDKey])
	assert.Equal(t, snap.Name, stored[BranchNameKey])
	assert.Equal(t, "Outlet "+snap.ID, snap.Name)

	var record Branch
	require.NoError(t, json.Unmarshal([]byte(stored[BranchDataKey]), &record))
	assert.Equal(t, snap.ID, record.ID)
	require.NotNil(t, snap.Data)
	assert.Equal(t, snap.ID, snap.Data.ID)
}
