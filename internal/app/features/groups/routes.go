// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
)

func Routes(h *Handler, gw *auth.Gateway) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(gw.RequireAdmin)

		pr.Get("/", h.ServeList)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
