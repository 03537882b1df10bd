// internal/app/features/stats/handler.go
package stats

import (
	"net/http"

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

// Serve handles GET /api/admin/stats.
//
//	{ "success":true, "stats":{ "total_users":…, "moderators":…, "pilgrims":…,
//	  "groups":…, "pending_moderator_requests":… } }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "stats")
	defer cancel()

	st, err := h.Svc.Stats(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"stats": st})
}
