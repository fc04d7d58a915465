// Package store holds the app's client-side state containers: the persisted
// branch selection, the in-memory form drafts and the dropdown channel.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

// ErrStorage wraps faults of the underlying key-value storage.
var ErrStorage = errors.New("storage fault")

// Storage keys for the branch selection. LegacyBranchIDKey duplicates the id
// for builds that still read the old name.
const (
	BranchIDKey       = "current_branch_id"
	BranchNameKey     = "current_branch_name"
	BranchDataKey     = "selectedBranchData"
	LegacyBranchIDKey = "selectedBranchId"
)

// BranchKeys lists every key the branch store writes.
var BranchKeys = []string{BranchIDKey, BranchNameKey, BranchDataKey, LegacyBranchIDKey}

// Region is an administrative area reference.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BranchAddress is a structured outlet address.
type BranchAddress struct {
	Province    *Region `json:"province,omitempty"`
	City        *Region `json:"city,omitempty"`
	Subdistrict *Region `json:"subdistrict,omitempty"`
	Village     *Region `json:"village,omitempty"`
	Address     string  `json:"address,omitempty"`
}

// Branch is the selected outlet.
type Branch struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Address *BranchAddress `json:"address,omitempty"`
}

func (b *Branch) clone() *Branch {
	if b == nil {
		return nil
	}
	out := *b
	if b.Address != nil {
		addr := *b.Address
		addr.Province = cloneRegion(addr.Province)
		addr.City = cloneRegion(addr.City)
		addr.Subdistrict = cloneRegion(addr.Subdistrict)
		addr.Village = cloneRegion(addr.Village)
		out.Address = &addr
	}
	return &out
}

func cloneRegion(r *Region) *Region {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// BranchSnapshot is a consistent read of the branch state.
type BranchSnapshot struct {
	ID        string  `json:"currentBranchId"`
	Name      string  `json:"currentBranchName"`
	Data      *Branch `json:"currentBranchData"`
	IsLoading bool    `json:"isLoading"`
}

// BranchStore holds the selected branch and mirrors it to storage. The
// in-memory selection changes only after every storage write succeeded.
type BranchStore struct {
	storage kvstore.Storage
	logger  *zap.Logger

	mu        sync.RWMutex
	id        string
	name      string
	data      *Branch
	isLoading bool

	writeMu sync.Mutex
}

// NewBranchStore returns a store in the loading state.
func NewBranchStore(storage kvstore.Storage, logger *zap.Logger) *BranchStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchStore{storage: storage, logger: logger, isLoading: true}
}

// LoadFromStorage reads the branch keys concurrently. A corrupt serialized
// record is discarded; a storage fault leaves the selection unknown. Writes
// issued during the load are applied after it.
func (s *BranchStore) LoadFromStorage(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.isLoading = false
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	values := make([]string, len(BranchKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range BranchKeys {
		i, key := i, key
		g.Go(func() error {
			v, _, err := s.storage.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load branch selection", zap.Error(err))
		return
	}

	id, name, raw, legacyID := values[0], values[1], values[2], values[3]
	if id == "" {
		id = legacyID
	}

	var data *Branch
	if raw != "" {
		var b Branch
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			s.logger.Warn("discarding corrupt branch record", zap.String("key", BranchDataKey), zap.Error(err))
		} else {
			data = &b
		}
	}

	s.mu.Lock()
	s.id, s.name, s.data = id, name, data
	s.mu.Unlock()
}

// SetCurrentBranch persists branch under every branch key, then selects it.
func (s *BranchStore) SetCurrentBranch(ctx context.Context, branch Branch) error {
	raw, err := json.Marshal(branch)
	if err != nil {
		return fmt.Errorf("%w: encode branch: %v", ErrStorage, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	writes := map[string]string{
		BranchIDKey:       branch.ID,
		BranchNameKey:     branch.Name,
		BranchDataKey:     string(raw),
		LegacyBranchIDKey: branch.ID,
	}
	if err := s.each(ctx, func(ctx context.Context, key string) error {
		return s.storage.Set(ctx, key, writes[key])
	}); err != nil {
		s.logger.Error("failed to save branch selection", zap.String("branch_id", branch.ID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.id, s.name, s.data = branch.ID, branch.Name, branch.clone()
	s.mu.Unlock()
	return nil
}

// ClearCurrentBranch removes every branch key, then forgets the selection.
// A partial clear is logged and returned without touching memory.
func (s *BranchStore) ClearCurrentBranch(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.each(ctx, s.storage.Remove); err != nil {
		s.logger.Error("failed to clear branch selection", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.id, s.name, s.data = "", "", nil
	s.mu.Unlock()
	return nil
}

// each runs op for every branch key concurrently and combines the faults.
func (s *BranchStore) each(ctx context.Context, op func(ctx context.Context, key string) error) error {
	errs := make([]error, len(BranchKeys))
	var wg sync.WaitGroup
	for i, key := range BranchKeys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			if err := op(ctx, key); err != nil {
				errs[i] = fmt.Errorf("%s: %w", key, err)
			}
		}(i, key)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// CurrentBranchID returns the selected branch id, empty when unknown.
func (s *BranchStore) CurrentBranchID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// CurrentBranchName returns the selected branch name, empty when unknown.
func (s *BranchStore) CurrentBranchName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// CurrentBranchData returns a copy of the full branch record, or nil.
func (s *BranchStore) CurrentBranchData() *Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// IsLoading reports whether the first load is still pending.
func (s *BranchStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Snapshot returns the whole branch state under one lock.
func (s *BranchStore) Snapshot() BranchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BranchSnapshot{ID: s.id, Name: s.name, Data: s.data.clone(), IsLoading: s.isLoading}
}
