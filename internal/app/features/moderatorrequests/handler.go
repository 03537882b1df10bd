// internal/app/features/moderatorrequests/handler.go
package moderatorrequests

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

// ServeList handles GET /api/admin/moderator-requests.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list moderator requests")
	defer cancel()

	reqs, err := h.Svc.ListPendingRequests(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"count": len(reqs), "data": reqs})
}

// HandleApprove handles POST /api/admin/moderator-requests/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve moderator request")
	defer cancel()

	name, err := h.Svc.Approve(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{
		"message": "Pilgrim approved as Moderator",
		"user":    name,
	})
}

// HandleReject handles POST /api/admin/moderator-requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reject moderator request")
	defer cancel()

	if err := h.Svc.Reject(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "Request rejected"})
}
