// internal/app/features/moderators/handler.go
package moderators

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

// HandleCreate handles POST /api/admin/moderators.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in workflow.NewModerator
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create moderator")
	defer cancel()

	u, err := h.Svc.CreateModerator(ctx, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.M{
		"message": "Moderator created successfully",
		"data":    u,
	})
}

// HandleSoftDelete handles DELETE /api/admin/moderators/{id}.
func (h *Handler) HandleSoftDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate moderator")
	defer cancel()

	if err := h.Svc.SoftDelete(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "User deactivated (Soft Delete)"})
}

// HandleHardDelete handles DELETE /api/admin/moderators/{id}/force.
func (h *Handler) HandleHardDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete moderator")
	defer cancel()

	if err := h.Svc.HardDeleteAccount(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, respond.M{"message": "User permanently deleted"})
}
