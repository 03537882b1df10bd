// internal/app/features/groups/handler.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/munawwara-care/mcadmin/internal/app/system/respond"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"go.uber.org/zap"
)

type Handler struct {
	Svc *workflow.Service
	Log *zap.Logger
}

func NewHandler(svc *workflow.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// ServeList handles GET /api/admin/groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	groups, err := h.Svc.ListGroups(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"count": len(groups), "data": groups})
}

// HandleDelete handles DELETE /api/admin/groups/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete group")
	defer cancel()

	if err := h.Svc.HardDeleteGroup(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "Group permanently deleted"})
}
