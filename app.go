package kasir

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
	"github.com/Azizzarkasyi/kasir-pos-sub002/store"
)

// Deps are the capabilities the app container is built from.
type Deps struct {
	Storage   kvstore.Storage
	Navigator Navigator
	Logger    *zap.Logger
}

// App owns one instance of every client store for the life of the process.
// Screens receive it by reference instead of reaching for globals.
type App struct {
	Storage        kvstore.Storage
	Roles          *RoleStore
	Gate           *Gate
	Branch         *store.BranchStore
	Plan           *store.PlanStore
	ProductDraft   *store.ProductDraft
	RecipeDraft    *store.RecipeDraft
	VariantBarcode *store.VariantBarcodeDraft
	Dropdowns      *store.Dropdowns

	logger   *zap.Logger
	initOnce sync.Once
	initErr  error
}

// NewApp wires the stores. Nothing is read from storage until Init.
func NewApp(deps Deps) (*App, error) {
	if deps.Storage == nil {
		return nil, errors.New("kasir: storage is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	roles := NewRoleStore(deps.Storage, logger.Named("roles"))
	return &App{
		Storage:        deps.Storage,
		Roles:          roles,
		Gate:           NewGate(roles, deps.Navigator, logger.Named("gate")),
		Branch:         store.NewBranchStore(deps.Storage, logger.Named("branch")),
		Plan:           store.NewPlanStore(deps.Storage, logger.Named("plan")),
		ProductDraft:   store.NewProductDraft(),
		RecipeDraft:    store.NewRecipeDraft(),
		VariantBarcode: store.NewVariantBarcodeDraft(),
		Dropdowns:      store.NewDropdowns(),
		logger:         logger,
	}, nil
}

// Init loads the role, the branch selection and the plan concurrently and
// waits for all of them. Storage faults are logged by each store; Init only
// reports a ctx that ended before loading finished, in which case whatever
// was not read stays unknown. Only the first call does any work.
func (a *App) Init(ctx context.Context) error {
	a.initOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.Roles.Load(gctx)
			return ctx.Err()
		})
		g.Go(func() error {
			a.Branch.LoadFromStorage(gctx)
			return ctx.Err()
		})
		g.Go(func() error {
			a.Plan.Load(gctx)
			return ctx.Err()
		})
		if err := g.Wait(); err != nil {
			a.initErr = fmt.Errorf("load client state: %w", err)
		}

		role, ok := a.Roles.Role()
		plan, _ := a.Plan.Plan()
		a.logger.Info("client state loaded",
			zap.Bool("role_known", ok),
			zap.String("role", string(role)),
			zap.String("branch_id", a.Branch.CurrentBranchID()),
			zap.String("plan", string(plan)),
			zap.Error(a.initErr))
	})
	return a.initErr
}

// SignOut forgets the role, the branch, the plan and every form draft. The
// drafts are reset even when a storage write fails.
func (a *App) SignOut(ctx context.Context) error {
	a.Roles.Clear(ctx)
	a.ProductDraft.Reset()
	a.RecipeDraft.Reset()
	a.VariantBarcode.Reset()
	return multierr.Combine(
		a.Branch.ClearCurrentBranch(ctx),
		a.Plan.Clear(ctx),
	)
}

// Reset signs out and then wipes every key the device storage holds.
func (a *App) Reset(ctx context.Context) error {
	if err := a.SignOut(ctx); err != nil {
		return err
	}
	if err := kvstore.ClearAll(ctx, a.Storage); err != nil {
		a.logger.Error("failed to wipe device storage", zap.Error(err))
		return err
	}
	a.logger.Info("device storage wiped")
	return nil
}
