// internal/app/features/moderatorrequests/routes.go
package moderatorrequests

import (
	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
)

func Routes(h *Handler, gw *auth.Gateway) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(gw.RequireAdmin)

		pr.Get("/", h.ServeList)
		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
	})

	return r
}
