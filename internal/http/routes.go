package httpx

import (
	"log/slog"
	"net/http"

	"github.com/qldt/qldt-api/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	Sessions  SessionValidator
	Directory ports.Directory
	Pools     PoolSnapshotter

	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	tenants := &TenantHandlers{Directory: services.Directory, Logger: logger}
	mux.Handle("GET /api/tenants", http.HandlerFunc(tenants.List))

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Sessions:     services.Sessions,
		CookieDomain: services.CookieDomain,
		CookieSecure: services.CookieSecure,
		Logger:       logger,
	}
	registerAuthRoutes(mux, authHandlers)

	requireAuth := RequireAuth(services.Sessions, logger)
	admin := &AdminHandlers{Pools: services.Pools}
	mux.Handle("GET /api/admin/pools", requireAuth(RequireStaff(http.HandlerFunc(admin.ListPools))))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("POST /auth/staff/login", http.HandlerFunc(h.StaffLogin))
	mux.Handle("POST /auth/student/login", http.HandlerFunc(h.StudentLogin))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))
}
