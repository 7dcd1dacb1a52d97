package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/service"
)

// AuthServiceInterface defines the auth operations the handlers need.
type AuthServiceInterface interface {
	AuthenticateStaff(ctx context.Context, in service.StaffLoginInput) (*service.LoginResult, error)
	AuthenticateRestricted(ctx context.Context, in service.RestrictedLoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc      AuthServiceInterface
	Sessions SessionValidator
	// CookieDomain is left empty to scope the cookie to the request host.
	CookieDomain string
	// CookieSecure forces the Secure attribute even on plain HTTP requests.
	CookieSecure bool
	Logger       *slog.Logger
	// now is overridable in tests.
	now func() time.Time
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

type staffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field, never logged
	Tenant   string `json:"tenant"`
}

type studentLoginRequest struct {
	Identifier string `json:"identifier"`
	Tenant     string `json:"tenant"`
}

type principalResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Tenant      string `json:"tenant"`
	Restricted  bool   `json:"restricted"`
}

type loginResponse struct {
	User      principalResponse `json:"user"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func toPrincipalResponse(p domainauth.Principal) principalResponse {
	return principalResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Role:        p.RoleLabel,
		Tenant:      p.Tenant.BranchName,
		Restricted:  p.Restricted,
	}
}

// StaffLogin authenticates a staff member.
// POST /auth/staff/login {username, password, tenant}.
func (h *AuthHandlers) StaffLogin(w http.ResponseWriter, r *http.Request) {
	var req staffLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.AuthenticateStaff(r.Context(), service.StaffLoginInput{
		Username: req.Username,
		Secret:   req.Password,
		Tenant:   req.Tenant,
	})
	h.finishLogin(w, r, res, err)
}

// StudentLogin authenticates a student by identifier.
// POST /auth/student/login {identifier, tenant}.
func (h *AuthHandlers) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.AuthenticateRestricted(r.Context(), service.RestrictedLoginInput{
		Identifier: req.Identifier,
		Tenant:     req.Tenant,
	})
	h.finishLogin(w, r, res, err)
}

func (h *AuthHandlers) finishLogin(w http.ResponseWriter, r *http.Request, res *service.LoginResult, err error) {
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}
	// Any previous session on this browser is replaced, never merged.
	if old, cerr := r.Cookie(SessionCookieName); cerr == nil && old.Value != "" && old.Value != res.Session.ID {
		if lerr := h.Svc.Logout(r.Context(), old.Value); lerr != nil {
			h.logger().WarnContext(r.Context(), "clear previous session failed", "error", lerr)
		}
	}
	h.setSessionCookie(w, r, res.Session)
	WriteJSON(w, http.StatusOK, loginResponse{
		User:      toPrincipalResponse(res.Principal),
		ExpiresAt: res.Session.ExpiresAt,
	})
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, SessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromRequest(r, h.Sessions)
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}
	if session == nil {
		if _, cerr := r.Cookie(SessionCookieName); cerr == nil {
			h.clearCookie(w, r, SessionCookieName)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          toPrincipalResponse(session.Principal),
		"expires_at":    session.ExpiresAt,
	})
}

func (h *AuthHandlers) secure(r *http.Request) bool {
	return h.CookieSecure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	maxAge := int(s.ExpiresAt.Sub(h.clock()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
