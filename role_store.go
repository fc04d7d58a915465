package kasir

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

// RoleStorageKey is the storage key holding the signed-in user's role.
const RoleStorageKey = "user_role"

// RoleStore holds the current user's role. The in-memory role changes only
// after the matching storage write has succeeded.
type RoleStore struct {
	storage kvstore.Storage
	logger  *zap.Logger

	mu      sync.RWMutex
	role    Role
	known   bool
	loading bool

	// writeMu serializes load, save and clear so the in-memory role always
	// matches the last completed write.
	writeMu   sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}
}

// NewRoleStore returns a store in the loading state. Call Load once at startup.
func NewRoleStore(storage kvstore.Storage, logger *zap.Logger) *RoleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleStore{
		storage: storage,
		logger:  logger,
		loading: true,
		ready:   make(chan struct{}),
	}
}

// Load reads the persisted role. Missing, invalid or unreadable values
// leave the role unknown; faults are logged, not returned. A Save or Clear
// issued during Load takes effect after it.
func (s *RoleStore) Load(ctx context.Context) (Role, bool) {
	defer s.finishLoading()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.storage.Get(ctx, RoleStorageKey)
	if err != nil {
		s.logger.Error("failed to load user role", zap.String("key", RoleStorageKey), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	role, valid := ParseRole(raw)
	if !valid {
		s.logger.Warn("ignoring malformed persisted role", zap.String("key", RoleStorageKey), zap.String("value", raw))
		return "", false
	}

	s.mu.Lock()
	s.role, s.known = role, true
	s.mu.Unlock()
	return role, true
}

func (s *RoleStore) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

// Save persists role and then makes it current.
func (s *RoleStore) Save(ctx context.Context, role Role) {
	if !role.Valid() {
		s.logger.Warn("refusing to save invalid role", zap.String("role", string(role)))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Set(ctx, RoleStorageKey, string(role)); err != nil {
		s.logger.Error("failed to save user role", zap.String("role", string(role)), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.role, s.known = role, true
	s.mu.Unlock()
}

// Clear removes the persisted role and then forgets it.
func (s *RoleStore) Clear(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Remove(ctx, RoleStorageKey); err != nil {
		s.logger.Error("failed to clear user role", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.role, s.known = "", false
	s.mu.Unlock()
}

// Role returns the current role, or false when it is unknown.
func (s *RoleStore) Role() (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.known
}

// Loading reports whether the first Load is still pending. A denial while
// loading is indeterminate.
func (s *RoleStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once the first Load has settled.
func (s *RoleStore) Ready() <-chan struct{} {
	return s.ready
}

// HasPermission checks featureKey against the current role.
func (s *RoleStore) HasPermission(featureKey string) bool {
	role, ok := s.Role()
	if !ok {
		return false
	}
	return HasPermission(role, featureKey)
}

// CanAccessRole checks the current role against the hierarchy.
func (s *RoleStore) CanAccessRole(required Role) bool {
	role, ok := s.Role()
	if !ok {
		return false
	}
	return CanAccessRole(required, role)
}

// AllowedFeatures lists the features the current role may open.
func (s *RoleStore) AllowedFeatures() []string {
	role, ok := s.Role()
	if !ok {
		return nil
	}
	return AllowedFeatures(role)
}
