// internal/app/features/stats/routes.go
package stats

import (
	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
)

func Routes(h *Handler, gw *auth.Gateway) chi.Router {
	r := chi.NewRouter()
	r.With(gw.RequireAdmin).Get("/", h.Serve)
	return r
}
