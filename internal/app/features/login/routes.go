// internal/app/features/login/routes.go
package login

import (
	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
)

// Routes mounts the public login endpoint, rate limited per client IP when
// a limiter is configured.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	if h.Limiter != nil {
		r.Use(ratelimit.Middleware(h.Limiter, "login:", h.RetryAfter, h.Log, h.onLimited))
	}
	r.Post("/", h.HandleLogin)
	return r
}
