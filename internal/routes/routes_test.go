package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kasir "github.com/Azizzarkasyi/kasir-pos-sub002"
	"github.com/Azizzarkasyi/kasir-pos-sub002/kvstore"
)

func setupTestApp(t *testing.T, init bool) (*fiber.App, *kasir.App) {
	t.Helper()
	pos, err := kasir.NewApp(kasir.Deps{Storage: kvstore.NewMemory()})
	require.NoError(t, err)
	if init {
		require.NoError(t, pos.Init(context.Background()))
	}
	app := fiber.New()
	Setup(app, pos)
	return app, pos
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestRequireFeature_WaitingWhileLoading(t *testing.T) {
	app, _ := setupTestApp(t, false)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/employees", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestRequireFeature_DeniedRedirectsHome(t *testing.T) {
	app, pos := setupTestApp(t, true)
	pos.Roles.Save(context.Background(), kasir.RoleCashier)

	resp, body := do(t, app, http.MethodGet, "/api/v1/employees", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, HomePath, resp.Header.Get("Location"))
	assert.Equal(t, kasir.ErrPermissionDenied.Error(), body["error"])
	assert.Equal(t, kasir.FeatureEmployees, body["feature"])
}

func TestRequireFeature_Allowed(t *testing.T) {
	app, pos := setupTestApp(t, true)
	pos.Roles.Save(context.Background(), kasir.RoleOwner)

	resp, body := do(t, app, http.MethodGet, "/api/v1/employees", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, kasir.FeatureEmployees, body["feature"])
}

func TestRoleEndpoints(t *testing.T) {
	app, pos := setupTestApp(t, true)

	resp, body := do(t, app, http.MethodPut, "/api/v1/session/role", `{"role":"manager"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "manager", body["role"])

	resp, body = do(t, app, http.MethodGet, "/api/v1/permissions/reports", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "allowed", body["decision"])

	resp, body = do(t, app, http.MethodGet, "/api/v1/permissions/employees", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "denied", body["decision"])

	resp, _ = do(t, app, http.MethodPut, "/api/v1/session/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/v1/session/role", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, known := pos.Roles.Role()
	assert.False(t, known)

	resp, body = do(t, app, http.MethodGet, "/api/v1/session/role", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["known"])
}

func TestBranchEndpoints(t *testing.T) {
	app, pos := setupTestApp(t, true)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/branch", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// only owners may switch branches
	pos.Roles.Save(context.Background(), kasir.RoleCashier)
	resp, _ = do(t, app, http.MethodPut, "/api/v1/branch", `{"id":"1","name":"Outlet A"}`)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	pos.Roles.Save(context.Background(), kasir.RoleOwner)
	resp, body := do(t, app, http.MethodPut, "/api/v1/branch", `{"id":"1","name":"Outlet A"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", body["currentBranchId"])
	assert.Equal(t, "Outlet A", pos.Branch.CurrentBranchName())

	resp, _ = do(t, app, http.MethodPut, "/api/v1/branch", `{"name":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/v1/branch", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Outlet A", body["currentBranchName"])

	resp, _ = do(t, app, http.MethodDelete, "/api/v1/branch", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, pos.Branch.CurrentBranchID())
}

func TestHome(t *testing.T) {
	app, pos := setupTestApp(t, true)
	pos.Roles.Save(context.Background(), kasir.RoleCashier)

	resp, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cashier", body["role"])
	assert.Contains(t, body["features"], kasir.FeatureTransaction)
	assert.Equal(t, "", body["plan"])
}

func TestPlanEndpoints(t *testing.T) {
	app, pos := setupTestApp(t, true)

	resp, body := do(t, app, http.MethodGet, "/api/v1/session/plan", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["known"])

	pos.Roles.Save(context.Background(), kasir.RoleCashier)
	resp, _ = do(t, app, http.MethodPut, "/api/v1/session/plan", `{"plan":"pro"}`)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	pos.Roles.Save(context.Background(), kasir.RoleManager)
	resp, _ = do(t, app, http.MethodPut, "/api/v1/session/plan", `{"plan":"enterprise"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodPut, "/api/v1/session/plan", `{"plan":"pro"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pro", body["plan"])

	_, body = do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, "pro", body["plan"])
}

func TestDeviceEndpoints(t *testing.T) {
	app, pos := setupTestApp(t, true)
	ctx := context.Background()
	pos.Roles.Save(ctx, kasir.RoleOwner)
	require.NoError(t, pos.Plan.Save(ctx, "basic"))

	resp, body := do(t, app, http.MethodGet, "/api/v1/device/storage", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["keys_count"])

	resp, _ = do(t, app, http.MethodDelete, "/api/v1/device", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, known := pos.Roles.Role()
	assert.False(t, known)

	_, body = do(t, app, http.MethodGet, "/api/v1/device/storage", "")
	assert.Equal(t, float64(0), body["keys_count"])

	// the role is gone, so a second reset is refused
	resp, _ = do(t, app, http.MethodDelete, "/api/v1/device", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
