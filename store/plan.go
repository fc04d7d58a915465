package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

// PlanStorageKey holds the subscription plan of the signed-in business.
const PlanStorageKey = "user_plan"

var ErrInvalidPlan = errors.New("invalid plan")

// Plan is a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// ParsePlan validates a stored plan name.
func ParsePlan(s string) (Plan, bool) {
	switch p := Plan(s); p {
	case PlanFree, PlanBasic, PlanPro:
		return p, true
	}
	return "", false
}

// PlanStore holds the subscription plan. Like the role, it fails closed: a
// fault or an unknown value leaves the plan unknown.
type PlanStore struct {
	storage kvstore.Storage
	logger  *zap.Logger

	mu    sync.RWMutex
	plan  Plan
	known bool

	writeMu sync.Mutex
}

func NewPlanStore(storage kvstore.Storage, logger *zap.Logger) *PlanStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanStore{storage: storage, logger: logger}
}

// Load reads the stored plan.
func (s *PlanStore) Load(ctx context.Context) (Plan, bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	plan, ok := s.read(ctx)
	s.mu.Lock()
	s.plan, s.known = plan, ok
	s.mu.Unlock()
	return plan, ok
}

func (s *PlanStore) read(ctx context.Context) (Plan, bool) {
	raw, ok, err := s.storage.Get(ctx, PlanStorageKey)
	if err != nil {
		s.logger.Error("failed to load plan", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	plan, valid := ParsePlan(raw)
	if !valid {
		s.logger.Warn("ignoring malformed persisted plan", zap.String("value", raw))
		return "", false
	}
	return plan, true
}

// Save stores plan and then makes it current.
func (s *PlanStore) Save(ctx context.Context, plan Plan) error {
	if _, ok := ParsePlan(string(plan)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Set(ctx, PlanStorageKey, string(plan)); err != nil {
		s.logger.Error("failed to save plan", zap.String("plan", string(plan)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.mu.Lock()
	s.plan, s.known = plan, true
	s.mu.Unlock()
	return nil
}

// Clear removes the stored plan and then forgets it.
func (s *PlanStore) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Remove(ctx, PlanStorageKey); err != nil {
		s.logger.Error("failed to clear plan", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.mu.Lock()
	s.plan, s.known = "", false
	s.mu.Unlock()
	return nil
}

// Plan returns the current plan, or false when it is unknown.
func (s *PlanStore) Plan() (Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan, s.known
}
