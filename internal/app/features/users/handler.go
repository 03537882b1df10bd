// internal/app/features/users/handler.go
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/respond"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"go.uber.org/zap"
)

// Handler serves account listing and deletion across both account stores.
type Handler struct {
	Svc *workflow.Service
	Log *zap.Logger
}

func NewHandler(svc *workflow.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// ServeList handles GET /api/admin/users?role=pilgrim|moderator|admin.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list accounts")
	defer cancel()

	accounts, err := h.Svc.ListAccounts(ctx, r.URL.Query().Get("role"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"count": len(accounts), "data": accounts})
}

// HandleSoftDelete handles DELETE /api/admin/users/{id}.
func (h *Handler) HandleSoftDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate account")
	defer cancel()

	if err := h.Svc.SoftDelete(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "User deactivated (Soft Delete)"})
}

// HandleHardDelete handles DELETE /api/admin/users/{id}/force. Moderator
// requests referencing the account are removed with it.
func (h *Handler) HandleHardDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete account")
	defer cancel()

	if err := h.Svc.HardDeleteAccount(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "User permanently deleted"})
}
