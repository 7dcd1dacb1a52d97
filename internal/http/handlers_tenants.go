package httpx

import (
	"log/slog"
	"net/http"

	"github.com/qldt/qldt-api/internal/data/tenantdb"
	"github.com/qldt/qldt-api/internal/ports"
)

// TenantHandlers serves the department list for the login screen.
type TenantHandlers struct {
	Directory ports.Directory
	Logger    *slog.Logger
}

type tenantResponse struct {
	BranchName string `json:"branch_name"`
}

// List returns every department name, sorted. Server identifiers stay server-side.
// GET /api/tenants.
func (h *TenantHandlers) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Directory.ListTenants(r.Context())
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantResponse{BranchName: t.BranchName})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tenants": out})
}

// PoolSnapshotter exposes the registry's current pools.
type PoolSnapshotter interface {
	Snapshot() []tenantdb.PoolStatus
}

// AdminHandlers serves staff-only operational views.
type AdminHandlers struct {
	Pools PoolSnapshotter
}

// ListPools lists every live pool with its state.
// GET /api/admin/pools.
func (h *AdminHandlers) ListPools(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"pools": h.Pools.Snapshot()})
}
