package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/tablebook/internal/bootstrap"
	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/domain"
	httpshell "github.com/tablebook/tablebook/internal/http"
	"github.com/tablebook/tablebook/internal/rowstore/memory"
	"github.com/tablebook/tablebook/internal/security/accesstoken"
	"github.com/tablebook/tablebook/internal/security/authn"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

// newTestServer bootstraps a full stack on the memory store: system tenant
// plus admin, the acme tenant with user alice/s3cret, and one restaurant.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	tenants := dao.NewTenants(store)
	users := dao.NewUsers(store, tenants)
	restaurants := dao.NewRestaurants(store, tenants)

	require.NoError(t, bootstrap.Run(ctx, bootstrap.Deps{
		Tenants:       tenants,
		Users:         users,
		Restaurants:   restaurants,
		AdminPassword: "adminadmin",
	}))

	issuer, err := accesstoken.NewIssuer("test-secret", "tablebook", time.Minute)
	require.NoError(t, err)

	srv := httpshell.NewServer(httpshell.Deps{
		Store:       store,
		Tenants:     tenants,
		Users:       users,
		Restaurants: restaurants,
		Resolver: authn.NewResolver(tenants, users,
			authn.WithSleep(func(time.Duration) {})),
		Issuer: issuer,
	})
	ts := &testServer{t: t, handler: srv.Router()}

	admin := ts.login("admin@system", "adminadmin")
	rec := ts.do(http.MethodPost, "/v1/tenants", admin,
		domain.Tenant{TenantID: "acme", Name: "Acme Inc", URL: "acme.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPost, "/v1/users", admin, domain.TenantUser{
		TenantID: "acme", UserID: "alice", Active: true, Password: "s3cret",
		Roles: []string{domain.RoleTenantUser},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(identity, password string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/v1/auth/login", "",
		map[string]string{"identity": identity, "password": password})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginShapes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/auth/login", "",
		map[string]string{"identity": "alice@acme", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[map[string]any](t, rec)
	assert.Equal(t, "acme", out["tenantId"])
	assert.Equal(t, "Bearer", out["tokenType"])

	rec = ts.do(http.MethodPost, "/v1/auth/login", "",
		map[string]string{"identity": "alice@acme", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad_credentials", decode[map[string]any](t, rec)["code"])

	rec = ts.do(http.MethodPost, "/v1/auth/login", "",
		map[string]string{"identity": "bob@acme", "password": "s3cret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unknown_identity", decode[map[string]any](t, rec)["code"])
}

func TestMissingOrBadBearer(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/restaurants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/restaurants", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRestaurantCRUD(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice@acme", "s3cret")

	rec := ts.do(http.MethodPost, "/v1/restaurants", alice,
		domain.Restaurant{ID: "r1", Name: "Chez Alice", CountryCode: "FR"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Restaurant](t, rec)
	assert.Equal(t, "acme", created.TenantID, "tenant defaults to the token's")

	rec = ts.do(http.MethodGet, "/v1/restaurants/r1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chez Alice", decode[domain.Restaurant](t, rec).Name)

	rec = ts.do(http.MethodPut, "/v1/restaurants/r1", alice,
		domain.Restaurant{Name: "Chez Alice II", CountryCode: "FR"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/restaurants", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Restaurant](t, rec), 1)

	rec = ts.do(http.MethodDelete, "/v1/restaurants/r1", alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/restaurants/r1", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice@acme", "s3cret")

	// conflict on duplicate save
	body := domain.Restaurant{ID: "r1", Name: "Chez Alice", CountryCode: "FR"}
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/v1/restaurants", alice, body).Code)
	rec := ts.do(http.MethodPost, "/v1/restaurants", alice, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[map[string]any](t, rec)["code"])

	// validation failure
	rec = ts.do(http.MethodPost, "/v1/restaurants", alice,
		domain.Restaurant{ID: "r2", Name: "X", CountryCode: "FR"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[map[string]any](t, rec)["code"])

	// cross-tenant write
	rec = ts.do(http.MethodPost, "/v1/restaurants", alice,
		domain.Restaurant{TenantID: "system", ID: "r3", Name: "Sneaky", CountryCode: "FR"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[map[string]any](t, rec)["code"])

	// update of an absent entity
	rec = ts.do(http.MethodPut, "/v1/restaurants/ghost", alice,
		domain.Restaurant{Name: "Ghost", CountryCode: "FR"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]any](t, rec)["code"])
}

func TestTenantSurfaceIsSystemOnly(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice@acme", "s3cret")
	admin := ts.login("admin@system", "adminadmin")

	rec := ts.do(http.MethodGet, "/v1/tenants", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/tenants", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]domain.Tenant](t, rec)
	assert.GreaterOrEqual(t, len(listed), 2, "system and acme at least")
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login("admin@system", "adminadmin")

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/v1/tenants", admin,
		domain.Tenant{TenantID: "beta", Name: "Beta LLC", URL: "beta.io"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/v1/users", admin, domain.TenantUser{
		TenantID: "beta", UserID: "bob", Active: true, Password: "hunter2",
		Roles: []string{domain.RoleTenantUser},
	}).Code)

	alice := ts.login("alice@acme", "s3cret")
	bob := ts.login("bob@beta", "hunter2")

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/v1/restaurants", alice,
		domain.Restaurant{ID: "r1", Name: "Chez Alice", CountryCode: "FR"}).Code)

	rec := ts.do(http.MethodGet, "/v1/restaurants", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Restaurant](t, rec), "bob cannot see acme's restaurants")

	rec = ts.do(http.MethodGet, "/v1/restaurants/r1", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserPasswordNeverEchoed(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice@acme", "s3cret")

	rec := ts.do(http.MethodGet, "/v1/users/alice", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.TenantUser](t, rec)
	assert.Equal(t, domain.MaskedPassword, got.Password)
	assert.NotContains(t, rec.Body.String(), "s3cret")
}
