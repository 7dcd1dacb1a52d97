package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/qldt/qldt-api/internal/data"
	"github.com/qldt/qldt-api/internal/data/tenantdb"
	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	"github.com/qldt/qldt-api/internal/mocks"
	mockauth "github.com/qldt/qldt-api/internal/mocks/auth"
	"github.com/qldt/qldt-api/internal/service"
	"github.com/qldt/qldt-api/internal/testutil"
)

type stubAuth struct {
	staff      func(service.StaffLoginInput) (*service.LoginResult, error)
	restricted func(service.RestrictedLoginInput) (*service.LoginResult, error)
	loggedOut  []string
}

func (s *stubAuth) AuthenticateStaff(_ context.Context, in service.StaffLoginInput) (*service.LoginResult, error) {
	return s.staff(in)
}

func (s *stubAuth) AuthenticateRestricted(_ context.Context, in service.RestrictedLoginInput) (*service.LoginResult, error) {
	return s.restricted(in)
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type stubPools []tenantdb.PoolStatus

func (p stubPools) Snapshot() []tenantdb.PoolStatus { return p }

type routerFixture struct {
	handler   http.Handler
	auth      *stubAuth
	store     *mockauth.MemorySessionStore
	clock     *data.FixedTimeProvider
	directory *mocks.MockDirectory
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mockauth.NewMemorySessionStore()
	clock := data.NewFixedTimeProvider(testutil.TestTime())
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		MaxAge: 8 * time.Hour,
		Clock:  clock,
	})
	require.NoError(t, err)

	f := &routerFixture{
		auth:      &stubAuth{},
		store:     store,
		clock:     clock,
		directory: mocks.NewMockDirectory(ctrl),
	}
	f.handler = NewRouter(RouterServices{
		Auth:      f.auth,
		Sessions:  sessions,
		Directory: f.directory,
		Pools: stubPools{{
			Key:      `HOST\INSTANCE1:staff`,
			ServerID: `HOST\INSTANCE1`,
			Class:    "staff",
			State:    tenantdb.StateReady,
		}},
	})
	return f
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) storeSession(t *testing.T, id string, p domainauth.Principal) {
	t.Helper()
	sess := domainauth.Session{
		ID:             id,
		Principal:      p,
		LoginAt:        testutil.TestTime(),
		LastActivityAt: testutil.TestTime(),
		ExpiresAt:      testutil.TestTime().Add(8 * time.Hour),
	}
	require.NoError(t, f.store.Save(context.Background(), sess))
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func loginResult(p domainauth.Principal) *service.LoginResult {
	return &service.LoginResult{
		Principal: p,
		Session: domainauth.Session{
			ID:        "new-session",
			Principal: p,
			ExpiresAt: time.Now().Add(8 * time.Hour),
		},
	}
}

func TestTenantsList(t *testing.T) {
	f := newRouterFixture(t)
	f.directory.EXPECT().ListTenants(gomock.Any()).Return([]tenant.Tenant{
		{BranchName: "Economics", ServerID: "SRV2"},
		{BranchName: "IT Department", ServerID: `HOST\INSTANCE1`},
	}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/tenants", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tenants":[{"branch_name":"Economics"},{"branch_name":"IT Department"}]}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "INSTANCE1")
}

func TestTenantsList_DirectoryUnavailable(t *testing.T) {
	f := newRouterFixture(t)
	f.directory.EXPECT().ListTenants(gomock.Any()).
		Return(nil, apperrors.DirectoryUnavailable(errors.New("dial tcp PRIMARY:1433: refused")))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/tenants", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "directory_unavailable", body["error"])
	assert.NotContains(t, rec.Body.String(), "PRIMARY", "causes stay server-side")
}

func TestStaffLogin_Success(t *testing.T) {
	f := newRouterFixture(t)
	principal := testutil.NewStaffPrincipal().Build()
	f.auth.staff = func(in service.StaffLoginInput) (*service.LoginResult, error) {
		assert.Equal(t, service.StaffLoginInput{Username: "htkn_user", Secret: "pw", Tenant: "IT Department"}, in)
		return loginResult(principal), nil
	}

	rec := f.do(jsonRequest(http.MethodPost, "/auth/staff/login",
		`{"username":"htkn_user","password":"pw","tenant":"IT Department"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "new-session", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "KHOA", user["role"])
	assert.Equal(t, "IT Department", user["tenant"])
	assert.Equal(t, false, user["restricted"])
	assert.NotContains(t, rec.Body.String(), "INSTANCE1")
}

func TestStaffLogin_ReplacesPreviousSession(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.staff = func(service.StaffLoginInput) (*service.LoginResult, error) {
		return loginResult(testutil.NewStaffPrincipal().Build()), nil
	}

	req := jsonRequest(http.MethodPost, "/auth/staff/login", `{"username":"u","password":"p","tenant":"t"}`)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "old-session"})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"old-session"}, f.auth.loggedOut)
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{"tenant not found", apperrors.TenantNotFound("Nowhere"), http.StatusBadRequest, "tenant_not_found"},
		{"identity not found", apperrors.IdentityNotFound(nil), http.StatusUnauthorized, "identity_not_found"},
		{"restricted identifier", apperrors.RestrictedIdentifierNotFound(), http.StatusUnauthorized, "restricted_identifier_not_found"},
		{"pool failure", apperrors.PoolConnectionFailed(errors.New("login failed for app_staff")), http.StatusServiceUnavailable, "pool_connection_failed"},
		{"directory", apperrors.DirectoryUnavailable(nil), http.StatusServiceUnavailable, "directory_unavailable"},
		{"validation", apperrors.ValidationField("tenant", "tenant is required"), http.StatusBadRequest, "validation"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.auth.restricted = func(service.RestrictedLoginInput) (*service.LoginResult, error) {
				return nil, tt.err
			}

			rec := f.do(jsonRequest(http.MethodPost, "/auth/student/login", `{"identifier":"SV001","tenant":"IT Department"}`))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["error"])
			assert.Nil(t, sessionCookie(rec))
			assert.NotContains(t, rec.Body.String(), "app_staff")
		})
	}
}

func TestStudentLogin_Success(t *testing.T) {
	f := newRouterFixture(t)
	student := testutil.NewStaffPrincipal().Restricted("SV001").Build()
	f.auth.restricted = func(in service.RestrictedLoginInput) (*service.LoginResult, error) {
		assert.Equal(t, "SV001", in.Identifier)
		assert.Equal(t, "IT Department", in.Tenant)
		return loginResult(student), nil
	}

	rec := f.do(jsonRequest(http.MethodPost, "/auth/student/login", `{"identifier":"SV001","tenant":"IT Department"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookie(rec))
	user, ok := decodeBody(t, rec)["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, user["restricted"])
}

func TestLogin_InvalidJSON(t *testing.T) {
	f := newRouterFixture(t)

	for _, body := range []string{`{`, `{"username":"u","extra":1}`} {
		rec := f.do(jsonRequest(http.MethodPost, "/auth/staff/login", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
	}
}

func TestStatus(t *testing.T) {
	f := newRouterFixture(t)
	f.storeSession(t, "live", testutil.NewStaffPrincipal().Build())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "live"})
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "htkn_user", user["user_id"])
}

func TestStatus_ExpiredSessionIsCleared(t *testing.T) {
	f := newRouterFixture(t)
	f.storeSession(t, "stale", testutil.NewStaffPrincipal().Build())
	f.clock.AddTime(8*time.Hour + time.Second)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
	assert.Equal(t, 0, f.store.Len())
}

func TestLogout(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"abc"}, f.auth.loggedOut)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestAdminPools_Access(t *testing.T) {
	f := newRouterFixture(t)
	f.storeSession(t, "staff", testutil.NewStaffPrincipal().Build())
	f.storeSession(t, "student", testutil.NewStaffPrincipal().Restricted("SV001").Build())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/admin/pools", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pools", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "student"})
	rec = f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/pools", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "staff"})
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	pools, ok := decodeBody(t, rec)["pools"].([]any)
	require.True(t, ok)
	require.Len(t, pools, 1)
	first, ok := pools[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ready", first["state"])
}

func TestRequireAuth_StoreFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.store.GetErr = errors.New("redis: connection refused")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pools", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "staff"})
	rec := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestRecover(t *testing.T) {
	h := Recover(testutil.DiscardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeBody(t, rec)["error"])
}

func TestErrorStatus_WrappedAppError(t *testing.T) {
	err := errors.Join(errors.New("context"), apperrors.TenantNotFound("x"))
	assert.Equal(t, http.StatusBadRequest, ErrorStatus(err))
	assert.Equal(t, http.StatusInternalServerError, ErrorStatus(errors.New("plain")))
}
