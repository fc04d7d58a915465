package kasir

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Navigator is the router capability the gate redirects through.
type Navigator interface {
	// ReplaceHome replaces the current screen with the default destination.
	ReplaceHome(ctx context.Context) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context) error

func (f NavigatorFunc) ReplaceHome(ctx context.Context) error {
	return f(ctx)
}

// View is whatever a screen renders to.
type View any

// Screen is a renderable unit.
type Screen interface {
	Render(ctx context.Context) View
}

// ScreenFunc adapts a function to Screen.
type ScreenFunc func(ctx context.Context) View

func (f ScreenFunc) Render(ctx context.Context) View {
	return f(ctx)
}

// Waiting is rendered while the role is still loading.
type Waiting struct{}

// Decision is the outcome of an access check.
type Decision int

const (
	DecisionWaiting Decision = iota
	DecisionAllowed
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionDenied:
		return "denied"
	default:
		return "waiting"
	}
}

// Gate decides access to feature-keyed regions from the role store.
type Gate struct {
	roles  *RoleStore
	nav    Navigator
	logger *zap.Logger
}

// NewGate builds a gate. nav may be nil when no redirect is wanted.
func NewGate(roles *RoleStore, nav Navigator, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{roles: roles, nav: nav, logger: logger}
}

// Decide evaluates featureKey without side effects.
func (g *Gate) Decide(featureKey string) Decision {
	if g.roles.Loading() {
		return DecisionWaiting
	}
	if g.roles.HasPermission(featureKey) {
		return DecisionAllowed
	}
	return DecisionDenied
}

// Roles returns the role store backing the gate.
func (g *Gate) Roles() *RoleStore {
	return g.roles
}

// Protect wraps content so it renders only for roles granted featureKey.
// fallback, if non-nil, is rendered while a denial redirect is under way.
func (g *Gate) Protect(featureKey string, content, fallback Screen) *Guard {
	return &Guard{gate: g, featureKey: featureKey, content: content, fallback: fallback}
}

// WithPermission returns a gated version of screen.
func WithPermission(g *Gate, featureKey string, screen Screen) Screen {
	return g.Protect(featureKey, screen, nil)
}

// Guard is one mounted protected region. It redirects at most once per
// denial; an allowed render re-arms it.
type Guard struct {
	gate       *Gate
	featureKey string
	content    Screen
	fallback   Screen

	mu         sync.Mutex
	redirected bool
}

// FeatureKey returns the key the guard checks.
func (gd *Guard) FeatureKey() string {
	return gd.featureKey
}

// Render implements Screen.
func (gd *Guard) Render(ctx context.Context) View {
	switch gd.gate.Decide(gd.featureKey) {
	case DecisionWaiting:
		return Waiting{}
	case DecisionAllowed:
		gd.mu.Lock()
		gd.redirected = false
		gd.mu.Unlock()
		return gd.content.Render(ctx)
	}

	gd.redirectOnce(ctx)
	if gd.fallback != nil {
		return gd.fallback.Render(ctx)
	}
	return nil
}

func (gd *Guard) redirectOnce(ctx context.Context) {
	gd.mu.Lock()
	if gd.redirected {
		gd.mu.Unlock()
		return
	}
	gd.redirected = true
	gd.mu.Unlock()

	role, _ := gd.gate.roles.Role()
	gd.gate.logger.Info("access denied", zap.String("feature", gd.featureKey), zap.String("role", string(role)))

	if gd.gate.nav == nil {
		return
	}
	if err := gd.gate.nav.ReplaceHome(ctx); err != nil {
		gd.gate.logger.Error("redirect after denial failed", zap.String("feature", gd.featureKey), zap.Error(err))
		gd.mu.Lock()
		gd.redirected = false
		gd.mu.Unlock()
	}
}
