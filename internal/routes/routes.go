package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	kasir "github.com/Azizzarkasyi/kasir-pos-sub002"
	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
	"github.com/Azizzarkasyi/kasir-pos-sub002/store"
)

// HomePath is where denied requests are sent.
const HomePath = "/"

// Setup mounts the device console on app.
func Setup(app *fiber.App, pos *kasir.App) {
	h := &handler{pos: pos}

	app.Get(HomePath, h.home)

	api := app.Group("/api/v1")
	api.Get("/session/role", h.getRole)
	api.Put("/session/role", h.putRole)
	api.Delete("/session/role", h.deleteRole)
	api.Get("/session/plan", h.getPlan)
	api.Put("/session/plan", RequireFeature(pos.Gate, kasir.FeatureSettings), h.putPlan)

	api.Get("/permissions", h.listPermissions)
	api.Get("/permissions/:feature", h.checkPermission)

	api.Get("/branch", h.getBranch)
	api.Put("/branch", RequireFeature(pos.Gate, kasir.FeatureBranches), h.putBranch)
	api.Delete("/branch", h.deleteBranch)

	api.Get("/device/storage", h.storageStats)
	api.Delete("/device", RequireFeature(pos.Gate, kasir.FeatureSettings), h.resetDevice)

	api.Get("/employees", RequireFeature(pos.Gate, kasir.FeatureEmployees), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"feature": kasir.FeatureEmployees})
	})
	api.Get("/reports", RequireFeature(pos.Gate, kasir.FeatureReports), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"feature": kasir.FeatureReports})
	})
}

// RequireFeature gates a route on featureKey: 503 while the role is
// loading, a redirect home carrying ErrPermissionDenied when denied.
func RequireFeature(gate *kasir.Gate, featureKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch gate.Decide(featureKey) {
		case kasir.DecisionAllowed:
			return c.Next()
		case kasir.DecisionWaiting:
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "role not loaded"})
		}
		c.Location(HomePath)
		return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
			"error":   kasir.ErrPermissionDenied.Error(),
			"feature": featureKey,
		})
	}
}

type handler struct {
	pos *kasir.App
}

type roleRequest struct {
	Role string `json:"role"`
}

type planRequest struct {
	Plan string `json:"plan"`
}

func (h *handler) home(c *fiber.Ctx) error {
	role, _ := h.pos.Roles.Role()
	plan, _ := h.pos.Plan.Plan()
	return c.JSON(fiber.Map{
		"role":     role,
		"plan":     plan,
		"loading":  h.pos.Roles.Loading(),
		"features": h.pos.Roles.AllowedFeatures(),
		"branch":   h.pos.Branch.Snapshot(),
	})
}

func (h *handler) getRole(c *fiber.Ctx) error {
	role, ok := h.pos.Roles.Role()
	return c.JSON(fiber.Map{"role": role, "known": ok, "loading": h.pos.Roles.Loading()})
}

func (h *handler) putRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, kasir.ErrInvalidInput.Error())
	}
	role, ok := kasir.ParseRole(req.Role)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, kasir.ErrInvalidInput.Error())
	}

	h.pos.Roles.Save(c.UserContext(), role)
	if current, known := h.pos.Roles.Role(); !known || current != role {
		return fiber.NewError(fiber.StatusInternalServerError, "role was not saved")
	}
	return c.JSON(fiber.Map{"role": role, "known": true})
}

func (h *handler) deleteRole(c *fiber.Ctx) error {
	h.pos.Roles.Clear(c.UserContext())
	if _, known := h.pos.Roles.Role(); known {
		return fiber.NewError(fiber.StatusInternalServerError, "role was not cleared")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) getPlan(c *fiber.Ctx) error {
	plan, ok := h.pos.Plan.Plan()
	return c.JSON(fiber.Map{"plan": plan, "known": ok})
}

func (h *handler) putPlan(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, kasir.ErrInvalidInput.Error())
	}
	if err := h.pos.Plan.Save(c.UserContext(), store.Plan(req.Plan)); err != nil {
		if errors.Is(err, store.ErrInvalidPlan) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return storageError(err)
	}
	return c.JSON(fiber.Map{"plan": req.Plan, "known": true})
}

func (h *handler) storageStats(c *fiber.Ctx) error {
	stats, err := kvstore.Stats(c.UserContext(), h.pos.Storage)
	if errors.Is(err, kvstore.ErrUnsupported) {
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(stats)
}

func (h *handler) resetDevice(c *fiber.Ctx) error {
	err := h.pos.Reset(c.UserContext())
	if errors.Is(err, kvstore.ErrUnsupported) {
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	}
	if err != nil {
		return storageError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) listPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"features": h.pos.Roles.AllowedFeatures()})
}

func (h *handler) checkPermission(c *fiber.Ctx) error {
	feature := c.Params("feature")
	return c.JSON(fiber.Map{
		"feature":  feature,
		"decision": h.pos.Gate.Decide(feature).String(),
	})
}

func (h *handler) getBranch(c *fiber.Ctx) error {
	snap := h.pos.Branch.Snapshot()
	if !snap.IsLoading && snap.ID == "" {
		return fiber.NewError(fiber.StatusNotFound, kasir.ErrNotFound.Error())
	}
	return c.JSON(snap)
}

func (h *handler) putBranch(c *fiber.Ctx) error {
	var b store.Branch
	if err := c.BodyParser(&b); err != nil || b.ID == "" {
		return fiber.NewError(fiber.StatusBadRequest, kasir.ErrInvalidInput.Error())
	}
	if err := h.pos.Branch.SetCurrentBranch(c.UserContext(), b); err != nil {
		return storageError(err)
	}
	return c.JSON(h.pos.Branch.Snapshot())
}

func (h *handler) deleteBranch(c *fiber.Ctx) error {
	if err := h.pos.Branch.ClearCurrentBranch(c.UserContext()); err != nil {
		return storageError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func storageError(err error) error {
	if errors.Is(err, store.ErrStorage) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
