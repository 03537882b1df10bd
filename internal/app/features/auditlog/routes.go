// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
)

// Routes mounts the audit trail under the path where this router is mounted
// (typically "/api/admin/audit-events" from bootstrap). Admins only.
func Routes(h *Handler, gw *auth.Gateway) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(gw.RequireAdmin)

		pr.Get("/", h.ServeList)
	})

	return r
}
